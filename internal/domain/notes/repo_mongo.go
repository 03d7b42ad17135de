package notes

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/medicarehub/api/internal/domain/identity"
	"github.com/medicarehub/api/internal/platform/mongodb"
)

type noteDoc struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	PatientID    primitive.ObjectID `bson:"patientId"`
	DoctorID     primitive.ObjectID `bson:"doctorId"`
	Note         string             `bson:"note"`
	Prescription string             `bson:"prescription"`
	CreatedAt    time.Time          `bson:"createdAt"`
	UpdatedAt    time.Time          `bson:"updatedAt"`
}

type noteRepoMongo struct {
	coll *mongo.Collection
}

func NewNoteRepoMongo(database *mongo.Database) Repository {
	return &noteRepoMongo{coll: database.Collection(mongodb.PatientNotesCollection)}
}

func (r *noteRepoMongo) Create(ctx context.Context, n *PatientNote) error {
	patientID, err := mongodb.ObjectID(string(n.PatientID))
	if err != nil {
		return err
	}
	doctorID, err := mongodb.ObjectID(string(n.DoctorID))
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	doc := noteDoc{
		ID:           primitive.NewObjectID(),
		PatientID:    patientID,
		DoctorID:     doctorID,
		Note:         n.Note,
		Prescription: n.Prescription,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return err
	}
	n.ID = NoteID(doc.ID.Hex())
	n.CreatedAt = now
	n.UpdatedAt = now
	return nil
}

func (r *noteRepoMongo) ListByPatient(ctx context.Context, patientID identity.UserID) ([]*PatientNote, error) {
	oid, err := mongodb.ObjectID(string(patientID))
	if err != nil {
		return nil, err
	}
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cur, err := r.coll.Find(ctx, bson.M{"patientId": oid}, opts)
	if err != nil {
		return nil, err
	}
	var docs []noteDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]*PatientNote, 0, len(docs))
	for _, d := range docs {
		out = append(out, &PatientNote{
			ID:           NoteID(d.ID.Hex()),
			PatientID:    identity.UserID(d.PatientID.Hex()),
			DoctorID:     identity.UserID(d.DoctorID.Hex()),
			Note:         d.Note,
			Prescription: d.Prescription,
			CreatedAt:    d.CreatedAt,
			UpdatedAt:    d.UpdatedAt,
		})
	}
	return out, nil
}
