package store

import (
	"bytes"
	"context"
	"encoding/json"
	"sort"
	"strings"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
	"github.com/jhoicas/stock-ledger/pkg/logger"
)

var (
	_ repository.UserRepository      = (*UserRepo)(nil)
	_ repository.SessionRepository   = (*SessionRepo)(nil)
	_ repository.AdminListRepository = (*AdminListRepo)(nil)
)

// UserRepo implementación de UserRepository sobre el blob users (username -> registro).
// También acepta la lista heredada [{username, password, role, createdAt}] y la migra al mapa.
type UserRepo struct {
	kv  repository.KeyValueStore
	log *logger.Logger
}

// NewUserRepository construye el repositorio de usuarios.
func NewUserRepository(kv repository.KeyValueStore, log *logger.Logger) *UserRepo {
	return &UserRepo{kv: kv, log: log}
}

func (r *UserRepo) load(ctx context.Context) (map[string]userRecord, error) {
	raw, ok, err := readBlob[json.RawMessage](ctx, r.kv, repository.KeyUsers, r.log)
	if err != nil || !ok {
		return map[string]userRecord{}, err
	}

	if bytes.HasPrefix(bytes.TrimSpace(raw), []byte("[")) {
		var list []legacyUserRecord
		if err := json.Unmarshal(raw, &list); err != nil {
			r.log.Warn().Err(&domain.StorageCorruption{Key: repository.KeyUsers, Err: err}).Msg("lista de usuarios ilegible")
			return map[string]userRecord{}, nil
		}
		users := make(map[string]userRecord, len(list))
		for _, u := range list {
			if u.Username == "" {
				continue
			}
			users[u.Username] = userRecord{Password: u.Password, Role: u.Role, CreatedAt: u.CreatedAt}
		}
		if err := writeBlob(ctx, r.kv, repository.KeyUsers, users); err != nil {
			return nil, err
		}
		r.log.Info().Int("count", len(users)).Msg("usuarios migrados a mapa")
		return users, nil
	}

	var users map[string]userRecord
	if err := json.Unmarshal(raw, &users); err != nil {
		r.log.Warn().Err(&domain.StorageCorruption{Key: repository.KeyUsers, Err: err}).Msg("mapa de usuarios ilegible")
		return map[string]userRecord{}, nil
	}
	if users == nil {
		users = map[string]userRecord{}
	}
	return users, nil
}

// List usuarios ordenados por nombre.
func (r *UserRepo) List(ctx context.Context) ([]entity.User, error) {
	users, err := r.load(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]entity.User, 0, len(users))
	for name, rec := range users {
		out = append(out, toUser(name, rec))
	}
	sort.Slice(out, func(i, j int) bool { return strings.ToLower(out[i].Username) < strings.ToLower(out[j].Username) })
	return out, nil
}

func (r *UserRepo) FindByUsername(ctx context.Context, username string) (*entity.User, error) {
	users, err := r.load(ctx)
	if err != nil {
		return nil, err
	}
	name, ok := matchUsername(users, username)
	if !ok {
		return nil, nil
	}
	u := toUser(name, users[name])
	return &u, nil
}

// Save inserta o reemplaza; conserva la grafía existente del nombre.
func (r *UserRepo) Save(ctx context.Context, user entity.User) error {
	users, err := r.load(ctx)
	if err != nil {
		return err
	}
	name := user.Username
	if existing, ok := matchUsername(users, name); ok {
		name = existing
	}
	users[name] = userRecord{Password: user.PasswordHash, Role: user.Role, CreatedAt: user.CreatedAt}
	return writeBlob(ctx, r.kv, repository.KeyUsers, users)
}

// Delete devuelve ErrUserNotFound si no existe.
func (r *UserRepo) Delete(ctx context.Context, username string) error {
	users, err := r.load(ctx)
	if err != nil {
		return err
	}
	name, ok := matchUsername(users, username)
	if !ok {
		return domain.ErrUserNotFound
	}
	delete(users, name)
	return writeBlob(ctx, r.kv, repository.KeyUsers, users)
}

func matchUsername(users map[string]userRecord, username string) (string, bool) {
	if _, ok := users[username]; ok {
		return username, true
	}
	for name := range users {
		if strings.EqualFold(name, username) {
			return name, true
		}
	}
	return "", false
}

func toUser(name string, rec userRecord) entity.User {
	return entity.User{Username: name, PasswordHash: rec.Password, Role: rec.Role, CreatedAt: rec.CreatedAt}
}

// SessionRepo implementación de SessionRepository sobre currentUser.
type SessionRepo struct {
	kv  repository.KeyValueStore
	log *logger.Logger
}

// NewSessionRepository construye el repositorio de sesión.
func NewSessionRepository(kv repository.KeyValueStore, log *logger.Logger) *SessionRepo {
	return &SessionRepo{kv: kv, log: log}
}

// Current nil, nil si no hay sesión.
func (r *SessionRepo) Current(ctx context.Context) (*entity.Profile, error) {
	rec, ok, err := readBlob[profileRecord](ctx, r.kv, repository.KeyCurrentUser, r.log)
	if err != nil || !ok || rec.Username == "" {
		return nil, err
	}
	return &entity.Profile{Username: rec.Username, Role: rec.Role, CreatedAt: rec.CreatedAt}, nil
}

func (r *SessionRepo) SetCurrent(ctx context.Context, p entity.Profile) error {
	return writeBlob(ctx, r.kv, repository.KeyCurrentUser, profileRecord{Username: p.Username, Role: p.Role, CreatedAt: p.CreatedAt})
}

func (r *SessionRepo) Clear(ctx context.Context) error {
	return r.kv.Delete(ctx, repository.KeyCurrentUser)
}

// AdminListRepo implementación de AdminListRepository sobre adminUsers.
type AdminListRepo struct {
	kv  repository.KeyValueStore
	log *logger.Logger
}

// NewAdminListRepository construye el repositorio de la proyección adminUsers.
func NewAdminListRepository(kv repository.KeyValueStore, log *logger.Logger) *AdminListRepo {
	return &AdminListRepo{kv: kv, log: log}
}

func (r *AdminListRepo) List(ctx context.Context) ([]string, error) {
	names, _, err := readBlob[[]string](ctx, r.kv, repository.KeyAdminUsers, r.log)
	if err != nil {
		return nil, err
	}
	if names == nil {
		names = []string{}
	}
	return names, nil
}

func (r *AdminListRepo) Save(ctx context.Context, usernames []string) error {
	if usernames == nil {
		usernames = []string{}
	}
	return writeBlob(ctx, r.kv, repository.KeyAdminUsers, usernames)
}
