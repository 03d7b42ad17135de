package identity

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/medicarehub/api/internal/platform/mongodb"
)

type userDoc struct {
	ID             primitive.ObjectID `bson:"_id,omitempty"`
	Name           string             `bson:"name"`
	Email          string             `bson:"email"`
	Password       string             `bson:"password"`
	Role           string             `bson:"role"`
	Phone          string             `bson:"phone,omitempty"`
	Specialization string             `bson:"specialization,omitempty"`
	CreatedAt      time.Time          `bson:"createdAt"`
	UpdatedAt      time.Time          `bson:"updatedAt"`
}

func (d *userDoc) toUser() *User {
	return &User{
		ID:             UserID(d.ID.Hex()),
		Name:           d.Name,
		Email:          d.Email,
		PasswordHash:   d.Password,
		Role:           Role(d.Role),
		Phone:          d.Phone,
		Specialization: d.Specialization,
		CreatedAt:      d.CreatedAt,
		UpdatedAt:      d.UpdatedAt,
	}
}

type userRepoMongo struct {
	coll *mongo.Collection
}

func NewUserRepoMongo(database *mongo.Database) Repository {
	return &userRepoMongo{coll: database.Collection(mongodb.UsersCollection)}
}

func (r *userRepoMongo) Create(ctx context.Context, u *User) error {
	now := time.Now().UTC()
	doc := userDoc{
		ID:             primitive.NewObjectID(),
		Name:           u.Name,
		Email:          u.Email,
		Password:       u.PasswordHash,
		Role:           string(u.Role),
		Phone:          u.Phone,
		Specialization: u.Specialization,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrEmailTaken
		}
		return err
	}
	u.ID = UserID(doc.ID.Hex())
	u.CreatedAt = now
	u.UpdatedAt = now
	return nil
}

func (r *userRepoMongo) GetByID(ctx context.Context, id UserID) (*User, error) {
	oid, err := mongodb.ObjectID(string(id))
	if err != nil {
		return nil, err
	}
	return r.findOne(ctx, bson.M{"_id": oid})
}

func (r *userRepoMongo) GetByEmail(ctx context.Context, email string) (*User, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

func (r *userRepoMongo) findOne(ctx context.Context, filter bson.M) (*User, error) {
	var doc userDoc
	if err := r.coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return doc.toUser(), nil
}

func (r *userRepoMongo) ListByRole(ctx context.Context, role Role) ([]*User, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cur, err := r.coll.Find(ctx, bson.M{"role": string(role)}, opts)
	if err != nil {
		return nil, err
	}
	var docs []userDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	users := make([]*User, 0, len(docs))
	for i := range docs {
		users = append(users, docs[i].toUser())
	}
	return users, nil
}

func (r *userRepoMongo) UpdateProfile(ctx context.Context, u *User) error {
	oid, err := mongodb.ObjectID(string(u.ID))
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": bson.M{
		"name":           u.Name,
		"phone":          u.Phone,
		"specialization": u.Specialization,
		"updatedAt":      now,
	}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrUserNotFound
	}
	u.UpdatedAt = now
	return nil
}
