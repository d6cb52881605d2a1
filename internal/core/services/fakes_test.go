package services

import (
	"context"
	"io"
	"sync"
	"time"

	"makerhub-api/internal/adapters/paypack"
	"makerhub-api/internal/adapters/persistence/models"
	"makerhub-api/internal/adapters/persistence/repositories"
	"makerhub-api/internal/adapters/storage"
	"makerhub-api/internal/core/domain"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// In-memory stand-ins for the gorm repositories and outer adapters.

var fixedNow = time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

func clock() time.Time { return fixedNow }

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func uintPtr(v uint) *uint { return &v }

// ---- orders ----

type fakeOrderRepo struct {
	orders map[uint]*models.Order
	claims map[uint]time.Time
	nextID uint
}

func newFakeOrderRepo(orders ...*models.Order) *fakeOrderRepo {
	r := &fakeOrderRepo{orders: map[uint]*models.Order{}, claims: map[uint]time.Time{}, nextID: 100}
	for _, o := range orders {
		r.orders[o.ID] = o
	}
	return r
}

func (r *fakeOrderRepo) CreateWithItems(_ context.Context, order *models.Order) error {
	r.nextID++
	order.ID = r.nextID
	for i := range order.Items {
		order.Items[i].OrderID = order.ID
	}
	r.orders[order.ID] = order
	return nil
}

func (r *fakeOrderRepo) GetByID(_ context.Context, id uint) (*models.Order, error) {
	o, ok := r.orders[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return o, nil
}

func (r *fakeOrderRepo) List(_ context.Context, filter repositories.OrderFilter, _, _ int) ([]*models.Order, int64, error) {
	var out []*models.Order
	for _, o := range r.orders {
		if filter.UserID != nil && o.UserID != *filter.UserID {
			continue
		}
		if filter.Status != "" && o.Status != filter.Status {
			continue
		}
		out = append(out, o)
	}
	return out, int64(len(out)), nil
}

func (r *fakeOrderRepo) UpdateStatus(_ context.Context, id uint, status domain.OrderStatus) error {
	o, ok := r.orders[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	o.Status = status
	return nil
}

func (r *fakeOrderRepo) SetDiscount(_ context.Context, id uint, discountID uint) error {
	r.orders[id].DiscountID = &discountID
	return nil
}

func (r *fakeOrderRepo) UpdateDiscountAmount(_ context.Context, id uint, amount decimal.Decimal) error {
	r.orders[id].DiscountAmount = amount
	return nil
}

func (r *fakeOrderRepo) ClaimPayment(_ context.Context, id uint, now, staleBefore time.Time) (bool, error) {
	o, ok := r.orders[id]
	if !ok || o.Status != domain.OrderPending {
		return false, nil
	}
	if at, held := r.claims[id]; held && !at.Before(staleBefore) {
		return false, nil
	}
	r.claims[id] = now
	return true, nil
}

func (r *fakeOrderRepo) ReleasePayment(_ context.Context, id uint) error {
	delete(r.claims, id)
	return nil
}

// ---- products ----

type fakeProductRepo struct {
	products map[uint]*models.Product
}

func newFakeProductRepo(products ...*models.Product) *fakeProductRepo {
	r := &fakeProductRepo{products: map[uint]*models.Product{}}
	for _, p := range products {
		r.products[p.ID] = p
	}
	return r
}

func (r *fakeProductRepo) Create(_ context.Context, p *models.Product) error {
	p.ID = uint(len(r.products) + 1)
	r.products[p.ID] = p
	return nil
}

func (r *fakeProductRepo) GetByID(_ context.Context, id uint) (*models.Product, error) {
	p, ok := r.products[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return p, nil
}

func (r *fakeProductRepo) GetByIDs(_ context.Context, ids []uint) (map[uint]*models.Product, error) {
	out := map[uint]*models.Product{}
	for _, id := range ids {
		if p, ok := r.products[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}

func (r *fakeProductRepo) List(context.Context, repositories.ProductFilter, int, int) ([]*models.Product, int64, error) {
	return nil, 0, nil
}

func (r *fakeProductRepo) Update(_ context.Context, p *models.Product) error {
	r.products[p.ID] = p
	return nil
}

func (r *fakeProductRepo) Delete(_ context.Context, id uint) error {
	delete(r.products, id)
	return nil
}

func (r *fakeProductRepo) SlugExists(_ context.Context, slug string) (bool, error) {
	for _, p := range r.products {
		if p.Slug == slug {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeProductRepo) NameExists(_ context.Context, name string, excludeID uint) (bool, error) {
	for _, p := range r.products {
		if p.Name == name && p.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

// ---- discounts ----

type fakeDiscountRepo struct {
	discounts map[uint]*models.Discount
	attached  []*models.ProductDiscount
}

func newFakeDiscountRepo(discounts ...*models.Discount) *fakeDiscountRepo {
	r := &fakeDiscountRepo{discounts: map[uint]*models.Discount{}}
	for _, d := range discounts {
		r.discounts[d.ID] = d
	}
	return r
}

func (r *fakeDiscountRepo) Create(_ context.Context, d *models.Discount) error {
	d.ID = uint(len(r.discounts) + 1)
	r.discounts[d.ID] = d
	return nil
}

func (r *fakeDiscountRepo) GetByID(_ context.Context, id uint) (*models.Discount, error) {
	d, ok := r.discounts[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return d, nil
}

func (r *fakeDiscountRepo) List(_ context.Context, validAt *time.Time) ([]*models.Discount, error) {
	var out []*models.Discount
	for _, d := range r.discounts {
		if validAt == nil || d.IsValid(*validAt) {
			out = append(out, d)
		}
	}
	return out, nil
}

func (r *fakeDiscountRepo) Update(_ context.Context, d *models.Discount) error {
	r.discounts[d.ID] = d
	return nil
}

func (r *fakeDiscountRepo) Delete(_ context.Context, id uint) error {
	delete(r.discounts, id)
	return nil
}

func (r *fakeDiscountRepo) AttachToProduct(_ context.Context, pd *models.ProductDiscount) error {
	pd.ID = uint(len(r.attached) + 1)
	r.attached = append(r.attached, pd)
	return nil
}

func (r *fakeDiscountRepo) DetachFromProduct(_ context.Context, productID, discountID uint) (bool, error) {
	for i, pd := range r.attached {
		if pd.ProductID == productID && pd.DiscountID == discountID {
			r.attached = append(r.attached[:i], r.attached[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeDiscountRepo) ListForProduct(_ context.Context, productID uint) ([]*models.ProductDiscount, error) {
	var out []*models.ProductDiscount
	for _, pd := range r.attached {
		if pd.ProductID == productID {
			out = append(out, pd)
		}
	}
	return out, nil
}

// ---- users ----

type fakeUserRepo struct {
	users map[uint]*models.User
}

func newFakeUserRepo(users ...*models.User) *fakeUserRepo {
	r := &fakeUserRepo{users: map[uint]*models.User{}}
	for _, u := range users {
		r.users[u.ID] = u
	}
	return r
}

func (r *fakeUserRepo) Create(_ context.Context, u *models.User) error {
	u.ID = uint(len(r.users) + 1)
	r.users[u.ID] = u
	return nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, id uint) (*models.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return u, nil
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*models.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeUserRepo) Update(_ context.Context, u *models.User) error {
	r.users[u.ID] = u
	return nil
}

func (r *fakeUserRepo) UpdatePassword(_ context.Context, id uint, hash string) error {
	r.users[id].Password = hash
	return nil
}

func (r *fakeUserRepo) List(context.Context, repositories.UserFilter, int, int) ([]*models.User, int64, error) {
	return nil, 0, nil
}

func (r *fakeUserRepo) ExistsByEmail(_ context.Context, email string) (bool, error) {
	_, err := r.GetByEmail(context.Background(), email)
	return err == nil, nil
}

func (r *fakeUserRepo) ExistsByPhone(_ context.Context, phone string, excludeID uint) (bool, error) {
	for _, u := range r.users {
		if u.PhoneNumber == phone && u.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

// ---- returns & refunds ----

type fakeReturnRepo struct {
	returns map[uint]*models.Return
	refunds []*models.Refund
}

func newFakeReturnRepo(returns ...*models.Return) *fakeReturnRepo {
	r := &fakeReturnRepo{returns: map[uint]*models.Return{}}
	for _, ret := range returns {
		r.returns[ret.ID] = ret
	}
	return r
}

func (r *fakeReturnRepo) Create(_ context.Context, ret *models.Return) error {
	ret.ID = uint(len(r.returns) + 1)
	r.returns[ret.ID] = ret
	return nil
}

// GetByID hands out copies, as every read from the database would
func (r *fakeReturnRepo) GetByID(_ context.Context, id uint) (*models.Return, error) {
	ret, ok := r.returns[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *ret
	return &cp, nil
}

func (r *fakeReturnRepo) List(_ context.Context, filter repositories.ReturnFilter, _, _ int) ([]*models.Return, int64, error) {
	var out []*models.Return
	for _, ret := range r.returns {
		if filter.UserID != nil && ret.UserID != *filter.UserID {
			continue
		}
		out = append(out, ret)
	}
	return out, int64(len(out)), nil
}

func (r *fakeReturnRepo) Transition(_ context.Context, ret *models.Return, from domain.ReturnStatus) error {
	stored, ok := r.returns[ret.ID]
	if !ok || stored.Status != from {
		return domain.ErrStaleState
	}
	cp := *ret
	r.returns[ret.ID] = &cp
	return nil
}

func (r *fakeReturnRepo) HasActiveForOrder(_ context.Context, orderID uint) (bool, error) {
	for _, ret := range r.returns {
		if ret.OrderID == orderID && (ret.Status == domain.ReturnRequested || ret.Status == domain.ReturnApproved) {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeReturnRepo) CompleteWithRefund(ctx context.Context, ret *models.Return, refund *models.Refund) error {
	if err := r.Transition(ctx, ret, domain.ReturnApproved); err != nil {
		return err
	}
	refund.ID = uint(len(r.refunds) + 1)
	r.refunds = append(r.refunds, refund)
	return nil
}

type fakeRefundRepo struct {
	refunds map[uint]*models.Refund
	claims  map[uint]time.Time
}

func newFakeRefundRepo(refunds ...*models.Refund) *fakeRefundRepo {
	r := &fakeRefundRepo{refunds: map[uint]*models.Refund{}, claims: map[uint]time.Time{}}
	for _, rf := range refunds {
		r.refunds[rf.ID] = rf
	}
	return r
}

func (r *fakeRefundRepo) Create(_ context.Context, rf *models.Refund) error {
	rf.ID = uint(len(r.refunds) + 1)
	r.refunds[rf.ID] = rf
	return nil
}

func (r *fakeRefundRepo) GetByID(_ context.Context, id uint) (*models.Refund, error) {
	rf, ok := r.refunds[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *rf
	return &cp, nil
}

func (r *fakeRefundRepo) List(_ context.Context, filter repositories.RefundFilter, _, _ int) ([]*models.Refund, int64, error) {
	var out []*models.Refund
	for _, rf := range r.refunds {
		if filter.UserID != nil && rf.UserID != *filter.UserID {
			continue
		}
		if filter.Status != "" && rf.Status != filter.Status {
			continue
		}
		out = append(out, rf)
	}
	return out, int64(len(out)), nil
}

func (r *fakeRefundRepo) Claim(_ context.Context, id uint, now, staleBefore time.Time) (bool, error) {
	rf, ok := r.refunds[id]
	if !ok || rf.Status != domain.RefundPending {
		return false, nil
	}
	if at, held := r.claims[id]; held && !at.Before(staleBefore) {
		return false, nil
	}
	r.claims[id] = now
	return true, nil
}

func (r *fakeRefundRepo) Release(_ context.Context, id uint) error {
	delete(r.claims, id)
	return nil
}

func (r *fakeRefundRepo) Settle(_ context.Context, rf *models.Refund) error {
	stored, ok := r.refunds[rf.ID]
	if !ok || stored.Status != domain.RefundPending {
		return domain.ErrStaleState
	}
	delete(r.claims, rf.ID)
	cp := *rf
	r.refunds[rf.ID] = &cp
	return nil
}

// ---- payments ----

type fakePaymentRepo struct {
	payments []*models.Payment
}

func (r *fakePaymentRepo) Create(_ context.Context, p *models.Payment) error {
	p.ID = uint(len(r.payments) + 1)
	if p.CreatedAt.IsZero() {
		p.CreatedAt = fixedNow
	}
	r.payments = append(r.payments, p)
	return nil
}

func (r *fakePaymentRepo) GetByRef(_ context.Context, ref string) (*models.Payment, error) {
	for _, p := range r.payments {
		if p.Ref != nil && *p.Ref == ref {
			cp := *p
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakePaymentRepo) Settle(_ context.Context, payment *models.Payment) error {
	for i, p := range r.payments {
		if p.ID != payment.ID {
			continue
		}
		if !p.IsPending() {
			return domain.ErrStaleState
		}
		cp := *payment
		r.payments[i] = &cp
		return nil
	}
	return gorm.ErrRecordNotFound
}

func (r *fakePaymentRepo) HasOpenCashIn(_ context.Context, orderID uint) (bool, error) {
	for _, p := range r.payments {
		if p.OrderID == orderID && p.Direction == domain.PaymentCashIn &&
			(p.Status == domain.PaymentPending || p.Status == domain.PaymentSuccessful) {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakePaymentRepo) ListPendingBefore(_ context.Context, before time.Time, limit int) ([]*models.Payment, error) {
	var out []*models.Payment
	for _, p := range r.payments {
		if p.IsPending() && p.CreatedAt.Before(before) && len(out) < limit {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}

// ---- outer adapters ----

type fakeGateway struct {
	cashIn   paypack.Result
	cashOut  paypack.Result
	statuses map[string]map[string]interface{}
	calls    int
}

func (g *fakeGateway) CashIn(_ context.Context, amount decimal.Decimal, _ string) paypack.Result {
	g.calls++
	res := g.cashIn
	res.Amount = amount
	return res
}

func (g *fakeGateway) CashOut(_ context.Context, amount decimal.Decimal, _ string) paypack.Result {
	g.calls++
	res := g.cashOut
	res.Amount = amount
	return res
}

func (g *fakeGateway) CheckStatus(_ context.Context, ref string) map[string]interface{} {
	return g.statuses[ref]
}

type sentMail struct {
	To, Subject, Body string
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []sentMail
}

func (m *fakeMailer) Send(_ context.Context, to, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, sentMail{to, subject, body})
	return nil
}

type fakePublisher struct {
	subjects []string
}

func (p *fakePublisher) Publish(_ context.Context, subject string, _ interface{}) error {
	p.subjects = append(p.subjects, subject)
	return nil
}

func (p *fakePublisher) Close() error { return nil }

type fakeStorage struct {
	uploads   []string
	destroyed []string
}

func (s *fakeStorage) Upload(_ context.Context, _ io.Reader, publicID, _ string) (*storage.UploadResult, error) {
	s.uploads = append(s.uploads, publicID)
	return &storage.UploadResult{URL: "https://cdn.test/" + publicID, PublicID: publicID}, nil
}

func (s *fakeStorage) Destroy(_ context.Context, publicID, _ string) error {
	s.destroyed = append(s.destroyed, publicID)
	return nil
}

// ---- identity ----

type fakeRefreshTokenRepo struct {
	tokens []*models.RefreshToken
}

func (r *fakeRefreshTokenRepo) Create(_ context.Context, t *models.RefreshToken) error {
	t.ID = uint(len(r.tokens) + 1)
	r.tokens = append(r.tokens, t)
	return nil
}

func (r *fakeRefreshTokenRepo) GetByTokenHash(_ context.Context, hash string) (*models.RefreshToken, error) {
	for _, t := range r.tokens {
		if t.TokenHash == hash {
			return t, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeRefreshTokenRepo) Revoke(_ context.Context, id uint) error {
	for _, t := range r.tokens {
		if t.ID == id && t.RevokedAt == nil {
			now := fixedNow
			t.RevokedAt = &now
		}
	}
	return nil
}

func (r *fakeRefreshTokenRepo) RevokeByTokenHash(ctx context.Context, hash string) error {
	t, err := r.GetByTokenHash(ctx, hash)
	if err != nil {
		return nil
	}
	return r.Revoke(ctx, t.ID)
}

func (r *fakeRefreshTokenRepo) RevokeAllByUserID(ctx context.Context, userID uint) error {
	for _, t := range r.tokens {
		if t.UserID == userID {
			_ = r.Revoke(ctx, t.ID)
		}
	}
	return nil
}

func (r *fakeRefreshTokenRepo) DeleteExpired(context.Context) (int64, error) { return 0, nil }

// live counts tokens of userID that are not revoked
func (r *fakeRefreshTokenRepo) live(userID uint) int {
	n := 0
	for _, t := range r.tokens {
		if t.UserID == userID && t.RevokedAt == nil {
			n++
		}
	}
	return n
}

type fakeCodeRepo struct {
	codes []*models.VerificationCode
}

func (r *fakeCodeRepo) Create(_ context.Context, vc *models.VerificationCode) error {
	vc.ID = uint(len(r.codes) + 1)
	if vc.CreatedAt.IsZero() {
		vc.CreatedAt = fixedNow
	}
	r.codes = append(r.codes, vc)
	return nil
}

func (r *fakeCodeRepo) FindPending(_ context.Context, email string, label domain.VerificationLabel, code string) (*models.VerificationCode, error) {
	for _, vc := range r.codes {
		if vc.Email == email && vc.Label == label && vc.Code == code && vc.IsPending {
			cp := *vc
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeCodeRepo) MarkUsed(_ context.Context, id uint) error {
	for _, vc := range r.codes {
		if vc.ID == id {
			vc.IsPending = false
		}
	}
	return nil
}

func (r *fakeCodeRepo) InvalidatePending(_ context.Context, email string, label domain.VerificationLabel) error {
	for _, vc := range r.codes {
		if vc.Email == email && vc.Label == label {
			vc.IsPending = false
		}
	}
	return nil
}

func (r *fakeCodeRepo) DeleteStale(_ context.Context, createdBefore time.Time) (int64, error) {
	var kept []*models.VerificationCode
	var n int64
	for _, vc := range r.codes {
		if !vc.IsPending || vc.CreatedAt.Before(createdBefore) {
			n++
			continue
		}
		kept = append(kept, vc)
	}
	r.codes = kept
	return n, nil
}

// latest returns the newest code mailed to email for label
func (r *fakeCodeRepo) latest(email string, label domain.VerificationLabel) *models.VerificationCode {
	for i := len(r.codes) - 1; i >= 0; i-- {
		if r.codes[i].Email == email && r.codes[i].Label == label {
			return r.codes[i]
		}
	}
	return nil
}

// ---- catalog extras ----

type fakeWishlistRepo struct {
	products  *fakeProductRepo
	wishlists map[uint]*models.Wishlist
}

func newFakeWishlistRepo(products *fakeProductRepo) *fakeWishlistRepo {
	return &fakeWishlistRepo{products: products, wishlists: map[uint]*models.Wishlist{}}
}

func (r *fakeWishlistRepo) GetOrCreate(_ context.Context, userID uint) (*models.Wishlist, error) {
	w, ok := r.wishlists[userID]
	if !ok {
		w = &models.Wishlist{ID: uint(len(r.wishlists) + 1), UserID: userID}
		r.wishlists[userID] = w
	}
	cp := *w
	cp.Items = make([]models.WishlistItem, len(w.Items))
	for i, item := range w.Items {
		item.Product = r.products.products[item.ProductID]
		cp.Items[i] = item
	}
	return &cp, nil
}

func (r *fakeWishlistRepo) find(wishlistID uint) *models.Wishlist {
	for _, w := range r.wishlists {
		if w.ID == wishlistID {
			return w
		}
	}
	return nil
}

func (r *fakeWishlistRepo) AddItem(_ context.Context, wishlistID, productID uint) error {
	w := r.find(wishlistID)
	for _, item := range w.Items {
		if item.ProductID == productID {
			return nil
		}
	}
	w.Items = append(w.Items, models.WishlistItem{ID: uint(len(w.Items) + 1), WishlistID: wishlistID, ProductID: productID})
	return nil
}

func (r *fakeWishlistRepo) RemoveItem(_ context.Context, wishlistID, productID uint) (bool, error) {
	w := r.find(wishlistID)
	for i, item := range w.Items {
		if item.ProductID == productID {
			w.Items = append(w.Items[:i], w.Items[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

type fakeFeedbackRepo struct {
	feedback map[uint]*models.Feedback
}

func newFakeFeedbackRepo() *fakeFeedbackRepo {
	return &fakeFeedbackRepo{feedback: map[uint]*models.Feedback{}}
}

func (r *fakeFeedbackRepo) Create(_ context.Context, f *models.Feedback) error {
	f.ID = uint(len(r.feedback) + 1)
	r.feedback[f.ID] = f
	return nil
}

func (r *fakeFeedbackRepo) GetByID(_ context.Context, id uint) (*models.Feedback, error) {
	f, ok := r.feedback[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *f
	return &cp, nil
}

func (r *fakeFeedbackRepo) List(_ context.Context, filter repositories.FeedbackFilter, _, _ int) ([]*models.Feedback, int64, error) {
	var out []*models.Feedback
	for _, f := range r.feedback {
		if filter.ProductID != nil && f.ProductID != *filter.ProductID {
			continue
		}
		if filter.PublishedOnly && !f.Published {
			continue
		}
		out = append(out, f)
	}
	return out, int64(len(out)), nil
}

func (r *fakeFeedbackRepo) SetPublished(_ context.Context, id uint, published bool) error {
	f, ok := r.feedback[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	f.Published = published
	return nil
}

func (r *fakeFeedbackRepo) Delete(_ context.Context, id uint) error {
	delete(r.feedback, id)
	return nil
}

type fakeMediaRepo struct {
	media map[uint]*models.ProductMedia
}

func newFakeMediaRepo(media ...*models.ProductMedia) *fakeMediaRepo {
	r := &fakeMediaRepo{media: map[uint]*models.ProductMedia{}}
	for _, m := range media {
		r.media[m.ID] = m
	}
	return r
}

func (r *fakeMediaRepo) Create(_ context.Context, m *models.ProductMedia) error {
	m.ID = uint(len(r.media) + 1)
	r.media[m.ID] = m
	return nil
}

func (r *fakeMediaRepo) GetByID(_ context.Context, id uint) (*models.ProductMedia, error) {
	m, ok := r.media[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return m, nil
}

func (r *fakeMediaRepo) ListByProduct(_ context.Context, productID uint) ([]*models.ProductMedia, error) {
	var out []*models.ProductMedia
	for _, m := range r.media {
		if m.ProductID == productID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *fakeMediaRepo) Delete(_ context.Context, id uint) error {
	delete(r.media, id)
	return nil
}
