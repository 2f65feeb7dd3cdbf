package fs

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	ba "github.com/panyam/blogauth"
)

// FSUserStore implements ba.UserStore using JSON files.
//
// # File Structure
//
//	{StoragePath}/
//	├── users/
//	│   └── {id}.json        # the full record
//	├── emails/
//	│   └── {hex(email)}     # contains the owning user id
//	└── usernames/
//	    └── {hex(username)}  # contains the owning user id
//
// Index names are hex encoded so that values differing only in case get
// distinct files on case-insensitive filesystems. Values whose encoding
// would be too long for a file name use "sha256-" plus the hex digest.
//
// # Concurrency Model
//
// Insert writes the record first and then links the email and username
// index files into place. A link fails when the index exists, so two
// concurrent inserts of the same email or username cannot both succeed, even
// across processes sharing the directory. Readers that find an index always
// find its record.
type FSUserStore struct {
	StoragePath string
}

// NewFSUserStore creates a new filesystem-backed UserStore
func NewFSUserStore(storagePath string) *FSUserStore {
	return &FSUserStore{StoragePath: storagePath}
}

func (s *FSUserStore) userPath(id string) string {
	return filepath.Join(s.StoragePath, "users", id+".json")
}

// maxIndexName keeps index file names under the usual 255 byte limit
const maxIndexName = 200

func (s *FSUserStore) indexPath(kind, value string) string {
	return filepath.Join(s.StoragePath, kind, indexName(value))
}

// indexName hex encodes value, falling back to its sha256 for long values
func indexName(value string) string {
	name := hex.EncodeToString([]byte(value))
	if len(name) <= maxIndexName {
		return name
	}
	sum := sha256.Sum256([]byte(value))
	return "sha256-" + hex.EncodeToString(sum[:])
}

func (s *FSUserStore) FindByEmail(ctx context.Context, email string) (*ba.UserRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	email = ba.NormalizeEmail(email)
	if email == "" {
		return nil, ba.ErrUserNotFound
	}
	id, err := s.readIndex("emails", email)
	if err != nil {
		return nil, err
	}
	return s.FindByID(ctx, id)
}

func (s *FSUserStore) FindByID(ctx context.Context, id string) (*ba.UserRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if id == "" || filepath.Base(id) != id {
		return nil, ba.ErrUserNotFound
	}
	data, err := os.ReadFile(s.userPath(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ba.ErrUserNotFound
		}
		return nil, err
	}

	var user ba.UserRecord
	if err := json.Unmarshal(data, &user); err != nil {
		return nil, fmt.Errorf("failed to decode user %s: %w", id, err)
	}
	return &user, nil
}

func (s *FSUserStore) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if username == "" {
		return false, nil
	}
	_, err := os.Stat(s.indexPath("usernames", username))
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}

func (s *FSUserStore) Insert(ctx context.Context, user *ba.UserRecord) (*ba.UserRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	record := *user
	record.ID = uuid.NewString()
	record.Email = ba.NormalizeEmail(record.Email)
	if record.Email == "" || record.Username == "" {
		return nil, errors.New("email and username are required")
	}
	if record.JoinedAt.IsZero() {
		record.JoinedAt = time.Now().UTC()
	}

	// The record goes first so an index never names a missing user
	if err := s.writeUser(&record); err != nil {
		return nil, err
	}
	userPath := s.userPath(record.ID)

	emailIndex := s.indexPath("emails", record.Email)
	if err := s.reserve(emailIndex, record.ID); err != nil {
		os.Remove(userPath)
		if errors.Is(err, os.ErrExist) {
			return nil, &ba.DuplicateKeyError{Field: ba.FieldEmail, Value: record.Email}
		}
		return nil, err
	}

	usernameIndex := s.indexPath("usernames", record.Username)
	if err := s.reserve(usernameIndex, record.ID); err != nil {
		os.Remove(emailIndex)
		os.Remove(userPath)
		if errors.Is(err, os.ErrExist) {
			return nil, &ba.DuplicateKeyError{Field: ba.FieldUsername, Value: record.Username}
		}
		return nil, err
	}
	return &record, nil
}

// reserve publishes an index file holding id. The file is written under a
// temporary name and hard linked into place, so it either does not exist or
// is complete, and linking fails if the index is already taken.
func (s *FSUserStore) reserve(path, id string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".reserve-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.WriteString(id); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Link(tmp.Name(), path)
}

func (s *FSUserStore) readIndex(kind, value string) (string, error) {
	data, err := os.ReadFile(s.indexPath(kind, value))
	if err != nil {
		if os.IsNotExist(err) {
			return "", ba.ErrUserNotFound
		}
		return "", err
	}
	return string(data), nil
}

func (s *FSUserStore) writeUser(user *ba.UserRecord) error {
	data, err := json.MarshalIndent(user, "", "  ")
	if err != nil {
		return err
	}
	// Holds the password hash
	return writeAtomicFile(s.userPath(user.ID), data, 0600)
}
