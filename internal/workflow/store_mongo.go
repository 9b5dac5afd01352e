package workflow

import (
	"context"
	"time"

	"recycle-it-api-server/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoStore lưu pickup/inspection/payment trong MongoDB. Các update có guard
// dùng filter có điều kiện + ModifiedCount để bảo đảm "first write wins".
type MongoStore struct {
	pickups     *mongo.Collection
	inspections *mongo.Collection
	payments    *mongo.Collection
	partners    *mongo.Collection
	recyclers   *mongo.Collection
}

func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{
		pickups:     db.Collection("pickups"),
		inspections: db.Collection("inspections"),
		payments:    db.Collection("payments"),
		partners:    db.Collection("delivery_partners"),
		recyclers:   db.Collection("recyclers"),
	}
}

func (s *MongoStore) CreatePickup(ctx context.Context, p *models.PickupRecord) error {
	_, err := s.pickups.InsertOne(ctx, p)
	return err
}

func (s *MongoStore) GetPickup(ctx context.Context, pickupID string) (*models.PickupRecord, error) {
	var p models.PickupRecord
	err := s.pickups.FindOne(ctx, bson.M{"pickupID": pickupID}).Decode(&p)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *MongoStore) ListPickups(ctx context.Context, filter PickupFilter) ([]models.PickupRecord, error) {
	query := bson.M{}
	if filter.UserID != "" {
		query["userID"] = filter.UserID
	}
	if filter.RecyclerID != "" {
		query["assignedRecyclerID"] = filter.RecyclerID
	}
	if filter.Status != "" {
		query["status"] = filter.Status
	}
	if filter.Unassigned {
		query["assignedRecyclerID"] = bson.M{"$in": bson.A{nil, ""}}
	}

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := s.pickups.Find(ctx, query, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var pickups []models.PickupRecord
	if err := cursor.All(ctx, &pickups); err != nil {
		return nil, err
	}
	return pickups, nil
}

func (s *MongoStore) UpdatePickup(ctx context.Context, pickupID string, guard PickupGuard, upd PickupUpdate) (bool, error) {
	filter := bson.M{"pickupID": pickupID, "status": string(guard.Status)}
	if guard.Unassigned {
		filter["assignedRecyclerID"] = bson.M{"$in": bson.A{nil, ""}}
	}

	set := bson.M{"updatedAt": time.Now()}
	if upd.Status != nil {
		set["status"] = string(*upd.Status)
	}
	if upd.AssignedRecyclerID != nil {
		set["assignedRecyclerID"] = *upd.AssignedRecyclerID
	}
	if upd.AssignedPartnerID != nil {
		set["assignedPartnerID"] = *upd.AssignedPartnerID
	}
	if upd.CancelReason != nil {
		set["cancelReason"] = *upd.CancelReason
	}

	update := bson.M{"$set": set}
	if upd.Event != nil {
		update["$push"] = bson.M{"history": *upd.Event}
	}

	result, err := s.pickups.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, err
	}
	return result.ModifiedCount > 0, nil
}

func (s *MongoStore) CreateInspection(ctx context.Context, ins *models.InspectionRecord) error {
	_, err := s.inspections.InsertOne(ctx, ins)
	return err
}

func (s *MongoStore) GetInspectionByPickup(ctx context.Context, pickupID string) (*models.InspectionRecord, error) {
	var ins models.InspectionRecord
	err := s.inspections.FindOne(ctx, bson.M{"pickupID": pickupID}).Decode(&ins)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &ins, nil
}

func (s *MongoStore) UpdateInspection(ctx context.Context, pickupID string, expectStatus []string, upd InspectionUpdate) (bool, error) {
	filter := bson.M{"pickupID": pickupID, "status": bson.M{"$in": expectStatus}}

	set := bson.M{"updatedAt": time.Now()}
	if upd.Status != nil {
		set["status"] = *upd.Status
	}
	if upd.Condition != nil {
		set["condition"] = *upd.Condition
	}
	if upd.EstimatedValue != nil {
		set["estimatedValue"] = *upd.EstimatedValue
	}
	if upd.Notes != nil {
		set["notes"] = *upd.Notes
	}
	if upd.InspectionDate != nil {
		set["inspectionDate"] = *upd.InspectionDate
	}

	result, err := s.inspections.UpdateOne(ctx, filter, bson.M{"$set": set})
	if err != nil {
		return false, err
	}
	return result.ModifiedCount > 0, nil
}

func (s *MongoStore) CreatePayment(ctx context.Context, p *models.PaymentRecord) error {
	_, err := s.payments.InsertOne(ctx, p)
	return err
}

func (s *MongoStore) GetPayment(ctx context.Context, paymentID string) (*models.PaymentRecord, error) {
	return s.findPayment(ctx, bson.M{"paymentID": paymentID})
}

func (s *MongoStore) GetPaymentByPickup(ctx context.Context, pickupID string) (*models.PaymentRecord, error) {
	return s.findPayment(ctx, bson.M{"pickupID": pickupID})
}

func (s *MongoStore) GetPaymentByProviderID(ctx context.Context, providerID string) (*models.PaymentRecord, error) {
	return s.findPayment(ctx, bson.M{"providerPaymentID": providerID})
}

func (s *MongoStore) findPayment(ctx context.Context, filter bson.M) (*models.PaymentRecord, error) {
	var p models.PaymentRecord
	err := s.payments.FindOne(ctx, filter).Decode(&p)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *MongoStore) ListPayments(ctx context.Context, recyclerID string) ([]models.PaymentRecord, error) {
	query := bson.M{}
	if recyclerID != "" {
		query["recyclerID"] = recyclerID
	}

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := s.payments.Find(ctx, query, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var list []models.PaymentRecord
	if err := cursor.All(ctx, &list); err != nil {
		return nil, err
	}
	return list, nil
}

func (s *MongoStore) UpdatePayment(ctx context.Context, paymentID string, expectStatus []string, upd PaymentUpdate) (bool, error) {
	filter := bson.M{"paymentID": paymentID, "status": bson.M{"$in": expectStatus}}

	set := bson.M{"updatedAt": time.Now()}
	if upd.Status != nil {
		set["status"] = *upd.Status
	}
	if upd.FinalAmount != nil {
		set["finalAmount"] = *upd.FinalAmount
	}
	if upd.ProviderPaymentID != nil {
		set["providerPaymentID"] = *upd.ProviderPaymentID
	}
	if upd.ProviderStatus != nil {
		set["providerStatus"] = *upd.ProviderStatus
	}
	if upd.PaidAt != nil {
		set["paidAt"] = *upd.PaidAt
	}

	result, err := s.payments.UpdateOne(ctx, filter, bson.M{"$set": set})
	if err != nil {
		return false, err
	}
	return result.ModifiedCount > 0, nil
}

func (s *MongoStore) GetPartner(ctx context.Context, partnerID string) (*models.DeliveryPartner, error) {
	var p models.DeliveryPartner
	err := s.partners.FindOne(ctx, bson.M{"partnerID": partnerID}).Decode(&p)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *MongoStore) SetPartnerAvailability(ctx context.Context, partnerID string, available bool) error {
	result, err := s.partners.UpdateOne(ctx,
		bson.M{"partnerID": partnerID},
		bson.M{"$set": bson.M{"available": available, "updatedAt": time.Now()}})
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoStore) GetRecyclerEnrollmentID(ctx context.Context, recyclerID string) (string, error) {
	var recycler models.Recycler
	err := s.recyclers.FindOne(ctx, bson.M{"recyclerID": recyclerID}).Decode(&recycler)
	if err == mongo.ErrNoDocuments {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return recycler.LedgerEnrollmentID, nil
}
