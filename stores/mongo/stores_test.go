package mongo_test

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	ba "github.com/panyam/blogauth"
	mongostore "github.com/panyam/blogauth/stores/mongo"
	"github.com/panyam/blogauth/stores/storetest"
)

func TestRecordDocumentRoundTrip(t *testing.T) {
	record := &ba.UserRecord{
		Fullname:   "Ann Lee",
		Email:      " Ann@Example.com ",
		Username:   "ann",
		GoogleAuth: true,
		ProfileImg: "https://lh3.googleusercontent.com/a/pic=s384-c",
		JoinedAt:   time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC),
	}

	doc := mongostore.RecordToDocument(record)
	assert.Equal(t, "ann@example.com", doc.PersonalInfo.Email)
	assert.Empty(t, doc.PersonalInfo.Password)

	doc.ID = primitive.NewObjectID()
	back := doc.ToRecord()
	assert.Equal(t, doc.ID.Hex(), back.ID)
	assert.Equal(t, "ann@example.com", back.Email)
	assert.Equal(t, record.ProfileImg, back.ProfileImg)
	assert.True(t, back.GoogleAuth)
}

// Requires a running server, e.g. MONGO_TEST_URI=mongodb://localhost:27017
func TestMongoUserStore(t *testing.T) {
	uri := os.Getenv("MONGO_TEST_URI")
	if uri == "" {
		t.Skip("MONGO_TEST_URI not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	require.NoError(t, err)
	t.Cleanup(func() { client.Disconnect(context.Background()) })

	n := 0
	storetest.RunUserStoreTests(t, func(t *testing.T) ba.UserStore {
		n++
		db := client.Database(fmt.Sprintf("blogauth_test_%d_%d", time.Now().UnixNano(), n))
		t.Cleanup(func() { db.Drop(context.Background()) })

		store := mongostore.NewUserStore(db, "")
		require.NoError(t, store.EnsureIndexes(context.Background()))
		return store
	})
}
