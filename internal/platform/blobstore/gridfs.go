package blobstore

import (
	"context"
	"errors"
	"fmt"
	"io"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/gridfs"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// GridFSStore keeps blobs in a GridFS bucket next to the metadata. Paths
// handed out are GridFS file names.
type GridFSStore struct {
	bucket *gridfs.Bucket
	name   string
}

func NewGridFSStore(database *mongo.Database, bucketName string) (*GridFSStore, error) {
	bucket, err := gridfs.NewBucket(database, options.GridFSBucket().SetName(bucketName))
	if err != nil {
		return nil, fmt.Errorf("blobstore: gridfs bucket %s: %w", bucketName, err)
	}
	return &GridFSStore{bucket: bucket, name: bucketName}, nil
}

func (s *GridFSStore) Location() string { return "gridfs://" + s.name }

func (s *GridFSStore) Put(ctx context.Context, name, contentType string, r io.Reader, maxSize int64) (*Object, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: empty name", ErrInvalidPath)
	}
	if _, err := s.fileID(ctx, name); err == nil {
		return nil, fmt.Errorf("%w: %s", ErrExists, name)
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	opts := options.GridFSUpload().SetMetadata(bson.M{"contentType": contentType})
	us, err := s.bucket.OpenUploadStream(name, opts)
	if err != nil {
		return nil, fmt.Errorf("blobstore: open upload %s: %w", name, err)
	}

	n, err := limitedCopy(us, r, maxSize)
	if err != nil {
		if !errors.Is(err, ErrTooLarge) {
			err = fmt.Errorf("blobstore: write %s: %w", name, err)
		}
		return nil, withCleanup(err, name, us.Abort())
	}
	if err := us.Close(); err != nil {
		return nil, fmt.Errorf("blobstore: finish %s: %w", name, err)
	}

	return &Object{Path: name, Name: name, Size: n}, nil
}

func (s *GridFSStore) Open(_ context.Context, path string) (io.ReadCloser, error) {
	ds, err := s.bucket.OpenDownloadStreamByName(path)
	if errors.Is(err, gridfs.ErrFileNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("blobstore: open %s: %w", path, err)
	}
	return ds, nil
}

func (s *GridFSStore) Remove(ctx context.Context, path string) error {
	id, err := s.fileID(ctx, path)
	if err != nil {
		return err
	}
	if err := s.bucket.Delete(id); err != nil {
		if errors.Is(err, gridfs.ErrFileNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("blobstore: remove %s: %w", path, err)
	}
	return nil
}

func (s *GridFSStore) Exists(ctx context.Context, path string) (bool, error) {
	_, err := s.fileID(ctx, path)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}

func (s *GridFSStore) fileID(ctx context.Context, name string) (primitive.ObjectID, error) {
	cur, err := s.bucket.Find(bson.M{"filename": name}, options.GridFSFind().SetLimit(1))
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("blobstore: find %s: %w", name, err)
	}
	defer cur.Close(ctx)

	if !cur.Next(ctx) {
		if err := cur.Err(); err != nil {
			return primitive.NilObjectID, fmt.Errorf("blobstore: find %s: %w", name, err)
		}
		return primitive.NilObjectID, ErrNotFound
	}
	var f struct {
		ID primitive.ObjectID `bson:"_id"`
	}
	if err := cur.Decode(&f); err != nil {
		return primitive.NilObjectID, fmt.Errorf("blobstore: decode %s: %w", name, err)
	}
	return f.ID, nil
}
