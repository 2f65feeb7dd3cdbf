// Package mongo provides a MongoDB implementation of blogauth.UserStore.
//
// Users live in a single collection with the document shape
//
//	{
//	  _id: ObjectId,
//	  personal_info: { fullname, email, password, username, profile_img },
//	  google_auth: bool,
//	  joinedAt: Date
//	}
//
// Uniqueness of personal_info.email and personal_info.username is enforced by
// unique indexes; call EnsureIndexes once at deploy or startup.
//
// # Usage
//
//	client, _ := mongo.Connect(ctx, options.Client().ApplyURI(uri))
//	store := mongostore.NewUserStore(client.Database("blog"), "")
//	if err := store.EnsureIndexes(ctx); err != nil { ... }
package mongo
