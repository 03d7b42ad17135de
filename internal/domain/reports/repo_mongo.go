package reports

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/medicarehub/api/internal/domain/identity"
	"github.com/medicarehub/api/internal/platform/mongodb"
)

type reportDoc struct {
	ID           primitive.ObjectID  `bson:"_id,omitempty"`
	PatientID    primitive.ObjectID  `bson:"patientId"`
	DoctorID     *primitive.ObjectID `bson:"doctorId"`
	FileName     string              `bson:"fileName"`
	OriginalName string              `bson:"originalName"`
	FilePath     string              `bson:"filePath"`
	FileSize     int64               `bson:"fileSize"`
	FileType     string              `bson:"fileType"`
	Remarks      string              `bson:"remarks"`
	UploadedOn   time.Time           `bson:"uploadedOn"`
	CreatedAt    time.Time           `bson:"createdAt"`
	UpdatedAt    time.Time           `bson:"updatedAt"`
}

func (d *reportDoc) toReport() *Report {
	return &Report{
		ID:           ReportID(d.ID.Hex()),
		PatientID:    identity.UserID(d.PatientID.Hex()),
		DoctorID:     identity.UserID(mongodb.HexOrEmpty(d.DoctorID)),
		FileName:     d.FileName,
		OriginalName: d.OriginalName,
		FilePath:     d.FilePath,
		FileSize:     d.FileSize,
		FileType:     d.FileType,
		Remarks:      d.Remarks,
		UploadedOn:   d.UploadedOn,
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
	}
}

type reportRepoMongo struct {
	coll *mongo.Collection
}

func NewReportRepoMongo(database *mongo.Database) Repository {
	return &reportRepoMongo{coll: database.Collection(mongodb.ReportsCollection)}
}

func (r *reportRepoMongo) Create(ctx context.Context, rep *Report) error {
	patientID, err := mongodb.ObjectID(string(rep.PatientID))
	if err != nil {
		return err
	}
	doctorID, err := mongodb.OptionalObjectID(string(rep.DoctorID))
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	if rep.UploadedOn.IsZero() {
		rep.UploadedOn = now
	}
	doc := reportDoc{
		ID:           primitive.NewObjectID(),
		PatientID:    patientID,
		DoctorID:     doctorID,
		FileName:     rep.FileName,
		OriginalName: rep.OriginalName,
		FilePath:     rep.FilePath,
		FileSize:     rep.FileSize,
		FileType:     rep.FileType,
		Remarks:      rep.Remarks,
		UploadedOn:   rep.UploadedOn,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return err
	}
	rep.ID = ReportID(doc.ID.Hex())
	rep.CreatedAt = now
	rep.UpdatedAt = now
	return nil
}

func (r *reportRepoMongo) GetByID(ctx context.Context, id ReportID) (*Report, error) {
	oid, err := mongodb.ObjectID(string(id))
	if err != nil {
		return nil, err
	}
	var doc reportDoc
	if err := r.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrReportNotFound
		}
		return nil, err
	}
	return doc.toReport(), nil
}

func (r *reportRepoMongo) Delete(ctx context.Context, id ReportID) error {
	oid, err := mongodb.ObjectID(string(id))
	if err != nil {
		return err
	}
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrReportNotFound
	}
	return nil
}

func (r *reportRepoMongo) ListByPatient(ctx context.Context, patientID identity.UserID) ([]*Report, error) {
	oid, err := mongodb.ObjectID(string(patientID))
	if err != nil {
		return nil, err
	}
	opts := options.Find().SetSort(bson.D{{Key: "uploadedOn", Value: -1}})
	cur, err := r.coll.Find(ctx, bson.M{"patientId": oid}, opts)
	if err != nil {
		return nil, err
	}
	var docs []reportDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]*Report, 0, len(docs))
	for i := range docs {
		out = append(out, docs[i].toReport())
	}
	return out, nil
}
