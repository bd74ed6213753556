package repository

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"billdesk/internal/domain"
)

const (
	productsCollection      = "products"
	denominationsCollection = "denominations"
	purchasesCollection     = "purchases"
	countersCollection      = "counters"
)

// MongoStore is a MongoDB backed store. Transactions need a replica set.
type MongoStore struct {
	client *mongo.Client
	db     *mongo.Database
}

// ConnectMongo dials uri, pings the server and makes sure indexes exist.
func ConnectMongo(ctx context.Context, uri, database string, timeout time.Duration) (*MongoStore, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo ping: %w", err)
	}
	s := &MongoStore{client: client, db: client.Database(database)}
	if err := s.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return s, nil
}

func (s *MongoStore) Close(ctx context.Context) error { return s.client.Disconnect(ctx) }

func (s *MongoStore) ensureIndexes(ctx context.Context) error {
	_, err := s.db.Collection(productsCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "code", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("mongo index products.code: %w", err)
	}
	_, err = s.db.Collection(purchasesCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "customer_email", Value: 1}, {Key: "created_at", Value: -1}},
	})
	if err != nil {
		return fmt.Errorf("mongo index purchases.customer_email: %w", err)
	}
	return nil
}

func (s *MongoStore) Products() *MongoProducts           { return &MongoProducts{store: s} }
func (s *MongoStore) Denominations() *MongoDenominations { return &MongoDenominations{store: s} }
func (s *MongoStore) Purchases() *MongoPurchases         { return &MongoPurchases{store: s} }
func (s *MongoStore) Tx() *MongoTx                       { return &MongoTx{client: s.client} }

// nextID hands out sequential int64 ids from the counters collection.
func (s *MongoStore) nextID(ctx context.Context, name string) (int64, error) {
	var doc struct {
		Seq int64 `bson:"seq"`
	}
	err := s.db.Collection(countersCollection).FindOneAndUpdate(ctx,
		bson.M{"_id": name},
		bson.M{"$inc": bson.M{"seq": 1}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&doc)
	if err != nil {
		return 0, fmt.Errorf("mongo next id %s: %w", name, err)
	}
	return doc.Seq, nil
}

// MongoTx runs fn inside a multi-document transaction. Repository calls made
// with the ctx passed to fn join it; transient errors are retried by the driver.
type MongoTx struct{ client *mongo.Client }

var _ TxManager = (*MongoTx)(nil)

func (t *MongoTx) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if mongo.SessionFromContext(ctx) != nil {
		return fn(ctx)
	}
	sess, err := t.client.StartSession()
	if err != nil {
		return fmt.Errorf("mongo start session: %w", err)
	}
	defer sess.EndSession(ctx)
	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	return err
}

type productDoc struct {
	ID         int64                `bson:"_id"`
	Code       string               `bson:"code"`
	Name       string               `bson:"name"`
	Price      primitive.Decimal128 `bson:"price"`
	TaxPercent primitive.Decimal128 `bson:"tax_percent"`
	Stock      int64                `bson:"stock"`
}

type denominationDoc struct {
	Value int64 `bson:"_id"`
	Count int64 `bson:"count"`
}

type purchaseItemDoc struct {
	ProductID    int64                `bson:"product_id"`
	ProductCode  string               `bson:"product_code"`
	ProductName  string               `bson:"product_name"`
	Quantity     int64                `bson:"quantity"`
	UnitPrice    primitive.Decimal128 `bson:"unit_price"`
	TaxPercent   primitive.Decimal128 `bson:"tax_percent"`
	LineSubtotal primitive.Decimal128 `bson:"line_subtotal"`
	LineTax      primitive.Decimal128 `bson:"line_tax"`
	LineTotal    primitive.Decimal128 `bson:"line_total"`
}

type noteDoc struct {
	Value int64 `bson:"value"`
	Count int64 `bson:"count"`
}

type changeDoc struct {
	Kind      string    `bson:"kind"`
	Dispensed []noteDoc `bson:"dispensed,omitempty"`
	Remaining int64     `bson:"remaining,omitempty"`
	Error     string    `bson:"error,omitempty"`
}

type purchaseDoc struct {
	ID            int64                `bson:"_id"`
	CustomerEmail string               `bson:"customer_email"`
	CreatedAt     time.Time            `bson:"created_at"`
	Subtotal      primitive.Decimal128 `bson:"subtotal"`
	TaxTotal      primitive.Decimal128 `bson:"tax_total"`
	Total         primitive.Decimal128 `bson:"total"`
	CashPaid      primitive.Decimal128 `bson:"cash_paid"`
	ChangeGiven   primitive.Decimal128 `bson:"change_given"`
	Change        changeDoc            `bson:"change_breakdown"`
	Items         []purchaseItemDoc    `bson:"items"`
}

// decimal codec helpers; errs collects the first conversion failure.
type decConv struct{ err error }

func (c *decConv) to(d decimal.Decimal) primitive.Decimal128 {
	v, err := primitive.ParseDecimal128(d.String())
	if err != nil && c.err == nil {
		c.err = fmt.Errorf("decimal %s: %w", d, err)
	}
	return v
}

func (c *decConv) from(v primitive.Decimal128) decimal.Decimal {
	d, err := decimal.NewFromString(v.String())
	if err != nil && c.err == nil {
		c.err = fmt.Errorf("decimal128 %s: %w", v, err)
	}
	return d
}

func newProductDoc(p domain.Product) (productDoc, error) {
	var c decConv
	doc := productDoc{
		ID:         p.ID,
		Code:       p.Code,
		Name:       p.Name,
		Price:      c.to(p.Price),
		TaxPercent: c.to(p.TaxPercent),
		Stock:      p.Stock,
	}
	return doc, c.err
}

func (d productDoc) product() (domain.Product, error) {
	var c decConv
	p := domain.Product{
		ID:         d.ID,
		Code:       d.Code,
		Name:       d.Name,
		Price:      c.from(d.Price),
		TaxPercent: c.from(d.TaxPercent),
		Stock:      d.Stock,
	}
	return p, c.err
}

func newPurchaseDoc(p domain.Purchase) (purchaseDoc, error) {
	var c decConv
	doc := purchaseDoc{
		ID:            p.ID,
		CustomerEmail: p.CustomerEmail,
		CreatedAt:     p.CreatedAt,
		Subtotal:      c.to(p.Subtotal),
		TaxTotal:      c.to(p.TaxTotal),
		Total:         c.to(p.Total),
		CashPaid:      c.to(p.CashPaid),
		ChangeGiven:   c.to(p.ChangeGiven),
		Change: changeDoc{
			Kind:      string(p.Change.Kind),
			Remaining: p.Change.Remaining,
			Error:     p.Change.Error,
		},
		Items: make([]purchaseItemDoc, 0, len(p.Items)),
	}
	for _, n := range p.Change.Dispensed {
		doc.Change.Dispensed = append(doc.Change.Dispensed, noteDoc{Value: n.Value, Count: n.Count})
	}
	for _, it := range p.Items {
		doc.Items = append(doc.Items, purchaseItemDoc{
			ProductID:    it.ProductID,
			ProductCode:  it.ProductCode,
			ProductName:  it.ProductName,
			Quantity:     it.Quantity,
			UnitPrice:    c.to(it.UnitPrice),
			TaxPercent:   c.to(it.TaxPercent),
			LineSubtotal: c.to(it.LineSubtotal),
			LineTax:      c.to(it.LineTax),
			LineTotal:    c.to(it.LineTotal),
		})
	}
	return doc, c.err
}

func (d purchaseDoc) purchase() (domain.Purchase, error) {
	var c decConv
	p := domain.Purchase{
		ID:            d.ID,
		CustomerEmail: d.CustomerEmail,
		CreatedAt:     d.CreatedAt.UTC(),
		Subtotal:      c.from(d.Subtotal),
		TaxTotal:      c.from(d.TaxTotal),
		Total:         c.from(d.Total),
		CashPaid:      c.from(d.CashPaid),
		ChangeGiven:   c.from(d.ChangeGiven),
		Change: domain.ChangeBreakdown{
			Kind:      domain.ChangeKind(d.Change.Kind),
			Remaining: d.Change.Remaining,
			Error:     d.Change.Error,
		},
		Items: make([]domain.PurchaseItem, 0, len(d.Items)),
	}
	for _, n := range d.Change.Dispensed {
		p.Change.Dispensed = append(p.Change.Dispensed, domain.DispensedNote{Value: n.Value, Count: n.Count})
	}
	for _, it := range d.Items {
		p.Items = append(p.Items, domain.PurchaseItem{
			ProductID:    it.ProductID,
			ProductCode:  it.ProductCode,
			ProductName:  it.ProductName,
			Quantity:     it.Quantity,
			UnitPrice:    c.from(it.UnitPrice),
			TaxPercent:   c.from(it.TaxPercent),
			LineSubtotal: c.from(it.LineSubtotal),
			LineTax:      c.from(it.LineTax),
			LineTotal:    c.from(it.LineTotal),
		})
	}
	return p, c.err
}

func productQuery(f ProductFilter) (bson.M, error) {
	q := bson.M{}
	if f.NameSubstring != "" {
		q["name"] = primitive.Regex{Pattern: regexp.QuoteMeta(f.NameSubstring), Options: "i"}
	}
	price := bson.M{}
	var c decConv
	if f.MinPrice != nil {
		price["$gte"] = c.to(*f.MinPrice)
	}
	if f.MaxPrice != nil {
		price["$lte"] = c.to(*f.MaxPrice)
	}
	if len(price) > 0 {
		q["price"] = price
	}
	return q, c.err
}

// MongoProducts implements ProductRepository.
type MongoProducts struct{ store *MongoStore }

var _ ProductRepository = (*MongoProducts)(nil)

func (r *MongoProducts) coll() *mongo.Collection { return r.store.db.Collection(productsCollection) }

func (r *MongoProducts) Create(ctx context.Context, p *domain.Product) error {
	id, err := r.store.nextID(ctx, productsCollection)
	if err != nil {
		return err
	}
	cp := *p
	cp.ID = id
	doc, err := newProductDoc(cp)
	if err != nil {
		return err
	}
	if _, err := r.coll().InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("mongo insert product: %w", err)
	}
	p.ID = id
	return nil
}

func (r *MongoProducts) GetByID(ctx context.Context, id int64) (*domain.Product, error) {
	var doc productDoc
	if err := r.coll().FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("mongo find product: %w", err)
	}
	p, err := doc.product()
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *MongoProducts) Update(ctx context.Context, p *domain.Product) error {
	doc, err := newProductDoc(*p)
	if err != nil {
		return err
	}
	res, err := r.coll().ReplaceOne(ctx, bson.M{"_id": p.ID}, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("mongo replace product: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *MongoProducts) Delete(ctx context.Context, id int64) error {
	res, err := r.coll().DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("mongo delete product: %w", err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *MongoProducts) List(ctx context.Context, f ProductFilter) ([]domain.Product, error) {
	q, err := productQuery(f)
	if err != nil {
		return nil, err
	}
	cur, err := r.coll().Find(ctx, q, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("mongo find products: %w", err)
	}
	var docs []productDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("mongo decode products: %w", err)
	}
	out := make([]domain.Product, 0, len(docs))
	for _, d := range docs {
		p, err := d.product()
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

func (r *MongoProducts) DecrementStock(ctx context.Context, id int64, qty int64) error {
	update := mongo.Pipeline{{{Key: "$set", Value: bson.D{{Key: "stock", Value: bson.D{{
		Key: "$max", Value: bson.A{0, bson.D{{Key: "$subtract", Value: bson.A{"$stock", qty}}}},
	}}}}}}}
	res, err := r.coll().UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return fmt.Errorf("mongo decrement stock: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// MongoDenominations implements DenominationRepository, keyed by value.
type MongoDenominations struct{ store *MongoStore }

var _ DenominationRepository = (*MongoDenominations)(nil)

func (r *MongoDenominations) coll() *mongo.Collection {
	return r.store.db.Collection(denominationsCollection)
}

func (r *MongoDenominations) ListDesc(ctx context.Context) ([]domain.Denomination, error) {
	cur, err := r.coll().Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "_id", Value: -1}}))
	if err != nil {
		return nil, fmt.Errorf("mongo find denominations: %w", err)
	}
	var docs []denominationDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("mongo decode denominations: %w", err)
	}
	out := make([]domain.Denomination, 0, len(docs))
	for _, d := range docs {
		out = append(out, domain.Denomination{Value: d.Value, Count: d.Count})
	}
	return out, nil
}

func (r *MongoDenominations) Upsert(ctx context.Context, d domain.Denomination) error {
	_, err := r.coll().ReplaceOne(ctx, bson.M{"_id": d.Value}, denominationDoc{Value: d.Value, Count: d.Count},
		options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("mongo upsert denomination: %w", err)
	}
	return nil
}

func (r *MongoDenominations) Decrement(ctx context.Context, value int64, count int64) error {
	res, err := r.coll().UpdateOne(ctx,
		bson.M{"_id": value, "count": bson.M{"$gte": count}},
		bson.M{"$inc": bson.M{"count": -count}},
	)
	if err != nil {
		return fmt.Errorf("mongo decrement denomination: %w", err)
	}
	if res.MatchedCount > 0 {
		return nil
	}
	n, err := r.coll().CountDocuments(ctx, bson.M{"_id": value})
	if err != nil {
		return fmt.Errorf("mongo count denomination: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return ErrInsufficientDenomination
}

// MongoPurchases implements PurchaseRepository with items embedded in the purchase document.
type MongoPurchases struct{ store *MongoStore }

var _ PurchaseRepository = (*MongoPurchases)(nil)

func (r *MongoPurchases) coll() *mongo.Collection { return r.store.db.Collection(purchasesCollection) }

func (r *MongoPurchases) Create(ctx context.Context, p *domain.Purchase) error {
	id, err := r.store.nextID(ctx, purchasesCollection)
	if err != nil {
		return err
	}
	cp := *p
	cp.ID = id
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = time.Now().UTC()
	}
	// mongo keeps milliseconds only
	cp.CreatedAt = cp.CreatedAt.Truncate(time.Millisecond)
	doc, err := newPurchaseDoc(cp)
	if err != nil {
		return err
	}
	if _, err := r.coll().InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("mongo insert purchase: %w", err)
	}
	p.ID = cp.ID
	p.CreatedAt = cp.CreatedAt
	return nil
}

func (r *MongoPurchases) GetByID(ctx context.Context, id int64) (*domain.Purchase, error) {
	var doc purchaseDoc
	if err := r.coll().FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("mongo find purchase: %w", err)
	}
	p, err := doc.purchase()
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *MongoPurchases) List(ctx context.Context, f PurchaseFilter) ([]domain.Purchase, error) {
	q := bson.M{}
	if f.CustomerEmail != "" {
		q["customer_email"] = f.CustomerEmail
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})
	cur, err := r.coll().Find(ctx, q, opts)
	if err != nil {
		return nil, fmt.Errorf("mongo find purchases: %w", err)
	}
	var docs []purchaseDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("mongo decode purchases: %w", err)
	}
	out := make([]domain.Purchase, 0, len(docs))
	for _, d := range docs {
		p, err := d.purchase()
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}
