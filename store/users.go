package store

import (
	"context"
	"errors"
	"regexp"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/achievehub/achievehub/models"
)

const studentsPageSize = 10

// UserPatch carries the self-service profile fields a user may change.
// Nil fields are left untouched.
type UserPatch struct {
	Username   *string
	ProfilePic *string
	Password   *string // already hashed by the caller
}

// FindUserByEmail returns the user with the given email or ErrNotFound.
func (s *Store) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := s.users().FindOne(ctx, bson.M{"email": email}).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

// FindUserByID returns the user with the given hex id or ErrNotFound.
func (s *Store) FindUserByID(ctx context.Context, id string) (*models.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrInvalidID
	}
	var user models.User
	if err := s.users().FindOne(ctx, bson.M{"_id": oid}).Decode(&user); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

// CreateUser inserts a new user record. Duplicate usernames or emails surface
// as ErrDuplicateUser through the unique indexes.
func (s *Store) CreateUser(ctx context.Context, user *models.User) (*models.User, error) {
	ts := now()
	user.CreatedAt = ts
	user.UpdatedAt = ts

	res, err := s.users().InsertOne(ctx, user)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, ErrDuplicateUser
		}
		return nil, err
	}
	user.ID = res.InsertedID.(primitive.ObjectID)
	return user, nil
}

// UpdateUser applies the non-nil patch fields and returns the updated record.
func (s *Store) UpdateUser(ctx context.Context, id string, patch UserPatch) (*models.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrInvalidID
	}

	set := bson.M{"updatedAt": now()}
	if patch.Username != nil {
		set["username"] = *patch.Username
	}
	if patch.ProfilePic != nil {
		set["profilePic"] = *patch.ProfilePic
	}
	if patch.Password != nil {
		set["passwordHash"] = *patch.Password
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var user models.User
	err = s.users().FindOneAndUpdate(ctx, bson.M{"_id": oid}, bson.M{"$set": set}, opts).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		if mongo.IsDuplicateKeyError(err) {
			return nil, ErrDuplicateUser
		}
		return nil, err
	}
	return &user, nil
}

// DeleteUser removes a user record.
func (s *Store) DeleteUser(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ErrInvalidID
	}
	res, err := s.users().DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// ListStudents returns one page of student accounts matching the search term
// against username or email, with the total page count.
func (s *Store) ListStudents(ctx context.Context, page int, search string) ([]models.User, int64, error) {
	if page < 1 {
		page = 1
	}

	filter := bson.M{"role": models.RoleStudent}
	if search != "" {
		pattern := primitive.Regex{Pattern: regexp.QuoteMeta(search), Options: "i"}
		filter["$or"] = bson.A{
			bson.M{"username": pattern},
			bson.M{"email": pattern},
		}
	}

	total, err := s.users().CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	opts := options.Find().
		SetSkip(int64((page - 1) * studentsPageSize)).
		SetLimit(studentsPageSize).
		SetProjection(bson.M{"passwordHash": 0})
	cur, err := s.users().Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, err
	}

	var users []models.User
	if err := cur.All(ctx, &users); err != nil {
		return nil, 0, err
	}

	totalPages := (total + studentsPageSize - 1) / studentsPageSize
	return users, totalPages, nil
}

// EnsureAdmin provisions the configured admin account if it does not exist
// yet. Called once at boot; login never creates records.
func (s *Store) EnsureAdmin(ctx context.Context, email, username, passwordHash string) error {
	_, err := s.FindAdminByEmail(ctx, email)
	if err == nil {
		return nil
	}
	if !errors.Is(err, ErrNotFound) {
		return err
	}

	_, err = s.CreateUser(ctx, &models.User{
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
		Role:         models.RoleAdmin,
	})
	return err
}

// FindAdminByEmail returns the admin with the given email or ErrNotFound.
func (s *Store) FindAdminByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := s.users().FindOne(ctx, bson.M{"email": email, "role": models.RoleAdmin}).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}
