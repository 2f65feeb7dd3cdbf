package mongo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	ba "github.com/panyam/blogauth"
)

// DefaultCollection is used when NewUserStore is given an empty name
const DefaultCollection = "users"

const (
	emailField    = "personal_info.email"
	usernameField = "personal_info.username"

	// Unique index names, as reported in E11000 errors
	EmailIndex    = "personal_info.email_1"
	UsernameIndex = "personal_info.username_1"
)

type personalInfo struct {
	Fullname   string `bson:"fullname"`
	Email      string `bson:"email"`
	Password   string `bson:"password,omitempty"`
	Username   string `bson:"username"`
	ProfileImg string `bson:"profile_img,omitempty"`
}

// UserDocument is the stored form of a user
type UserDocument struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	PersonalInfo personalInfo       `bson:"personal_info"`
	GoogleAuth   bool               `bson:"google_auth"`
	JoinedAt     time.Time          `bson:"joinedAt"`
}

func (d *UserDocument) ToRecord() *ba.UserRecord {
	return &ba.UserRecord{
		ID:           d.ID.Hex(),
		Fullname:     d.PersonalInfo.Fullname,
		Email:        d.PersonalInfo.Email,
		Username:     d.PersonalInfo.Username,
		PasswordHash: d.PersonalInfo.Password,
		GoogleAuth:   d.GoogleAuth,
		ProfileImg:   d.PersonalInfo.ProfileImg,
		JoinedAt:     d.JoinedAt,
	}
}

func RecordToDocument(u *ba.UserRecord) *UserDocument {
	return &UserDocument{
		PersonalInfo: personalInfo{
			Fullname:   u.Fullname,
			Email:      ba.NormalizeEmail(u.Email),
			Password:   u.PasswordHash,
			Username:   u.Username,
			ProfileImg: u.ProfileImg,
		},
		GoogleAuth: u.GoogleAuth,
		JoinedAt:   u.JoinedAt,
	}
}

// UserStore implements ba.UserStore on a MongoDB collection
type UserStore struct {
	collection *mongo.Collection
}

// NewUserStore creates a store over db.collection
func NewUserStore(db *mongo.Database, collection string) *UserStore {
	if collection == "" {
		collection = DefaultCollection
	}
	return &UserStore{collection: db.Collection(collection)}
}

// Collection returns the underlying collection
func (s *UserStore) Collection() *mongo.Collection {
	return s.collection
}

// EnsureIndexes creates the unique email and username indexes
func (s *UserStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: emailField, Value: 1}}, Options: options.Index().SetName(EmailIndex).SetUnique(true)},
		{Keys: bson.D{{Key: usernameField, Value: 1}}, Options: options.Index().SetName(UsernameIndex).SetUnique(true)},
	})
	if err != nil {
		return fmt.Errorf("failed to create indexes on %s: %w", s.collection.Name(), err)
	}
	return nil
}

func (s *UserStore) findOne(ctx context.Context, filter bson.M) (*ba.UserRecord, error) {
	var doc UserDocument
	err := s.collection.FindOne(ctx, filter).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ba.ErrUserNotFound
		}
		return nil, fmt.Errorf("mongo find on %s failed: %w", s.collection.Name(), err)
	}
	return doc.ToRecord(), nil
}

func (s *UserStore) FindByEmail(ctx context.Context, email string) (*ba.UserRecord, error) {
	return s.findOne(ctx, bson.M{emailField: ba.NormalizeEmail(email)})
}

func (s *UserStore) FindByID(ctx context.Context, id string) (*ba.UserRecord, error) {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ba.ErrUserNotFound
	}
	return s.findOne(ctx, bson.M{"_id": objectID})
}

func (s *UserStore) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	count, err := s.collection.CountDocuments(ctx, bson.M{usernameField: username}, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("mongo count on %s failed: %w", s.collection.Name(), err)
	}
	return count > 0, nil
}

func (s *UserStore) Insert(ctx context.Context, user *ba.UserRecord) (*ba.UserRecord, error) {
	doc := RecordToDocument(user)
	doc.ID = primitive.NewObjectID()
	if doc.JoinedAt.IsZero() {
		doc.JoinedAt = time.Now().UTC()
	}
	// BSON dates have millisecond precision
	doc.JoinedAt = doc.JoinedAt.Truncate(time.Millisecond)

	if _, err := s.collection.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, duplicateKeyError(err, doc)
		}
		return nil, fmt.Errorf("mongo insert on %s failed: %w", s.collection.Name(), err)
	}
	return doc.ToRecord(), nil
}

// duplicateKeyError works out which unique index rejected the insert from
// the server's message: "E11000 ... index: personal_info.username_1 dup key: {...}".
// Only the index name is inspected since the dup key part echoes user input.
func duplicateKeyError(err error, doc *UserDocument) *ba.DuplicateKeyError {
	messages := []string{err.Error()}
	var writeErr mongo.WriteException
	if errors.As(err, &writeErr) {
		messages = messages[:0]
		for _, we := range writeErr.WriteErrors {
			if we.Code == 11000 {
				messages = append(messages, we.Message)
			}
		}
	}
	for _, msg := range messages {
		if duplicateIndexName(msg) == UsernameIndex {
			return &ba.DuplicateKeyError{Field: ba.FieldUsername, Value: doc.PersonalInfo.Username}
		}
	}
	return &ba.DuplicateKeyError{Field: ba.FieldEmail, Value: doc.PersonalInfo.Email}
}

func duplicateIndexName(msg string) string {
	_, rest, found := strings.Cut(msg, "index: ")
	if !found {
		return ""
	}
	name, _, _ := strings.Cut(rest, " ")
	return name
}
