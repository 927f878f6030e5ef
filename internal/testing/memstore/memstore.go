// Package memstore is test support: an in-memory repository.Store used by service, router and
// seed tests. Production code runs on repository.GormStore.
// Atomic works on a copy of the data and swaps it in on success, so a failed operation leaves nothing behind.
package memstore

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"investx/internal/domain"
	"investx/internal/models"
	"investx/internal/repository"

	"gorm.io/gorm"
)

type dataset struct {
	accounts    map[uint]models.Account
	packages    map[uint]models.InvestmentPackage
	investments map[uint]models.Investment
	withdrawals map[uint]models.WithdrawalRequest
	payments    map[uint]models.PaymentRequest
	ledger      []models.LedgerEntry
	seq         map[string]uint
}

func newDataset() *dataset {
	return &dataset{
		accounts:    map[uint]models.Account{},
		packages:    map[uint]models.InvestmentPackage{},
		investments: map[uint]models.Investment{},
		withdrawals: map[uint]models.WithdrawalRequest{},
		payments:    map[uint]models.PaymentRequest{},
		seq:         map[string]uint{},
	}
}

func (d *dataset) clone() *dataset {
	c := newDataset()
	for k, v := range d.accounts {
		c.accounts[k] = v
	}
	for k, v := range d.packages {
		c.packages[k] = v
	}
	for k, v := range d.investments {
		c.investments[k] = v
	}
	for k, v := range d.withdrawals {
		c.withdrawals[k] = v
	}
	for k, v := range d.payments {
		c.payments[k] = v
	}
	c.ledger = append([]models.LedgerEntry(nil), d.ledger...)
	for k, v := range d.seq {
		c.seq[k] = v
	}
	return c
}

func (d *dataset) next(table string) uint {
	d.seq[table]++
	return d.seq[table]
}

type Store struct {
	mu   sync.Mutex
	data *dataset
	now  func() time.Time
	fail map[string]error
}

func New() *Store {
	return &Store{data: newDataset(), now: time.Now}
}

var _ repository.Store = (*Store)(nil)

func (s *Store) Atomic(ctx context.Context, fn func(tx repository.Repos) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	work := s.data.clone()
	if err := fn(&repos{s: s, d: work}); err != nil {
		return err
	}
	s.data = work
	return nil
}

func (s *Store) view() *repos { return &repos{s: s, locked: true} }

func (s *Store) Accounts() repository.AccountRepository       { return &accounts{s.view()} }
func (s *Store) Packages() repository.PackageRepository       { return &packages{s.view()} }
func (s *Store) Investments() repository.InvestmentRepository { return &investments{s.view()} }
func (s *Store) Withdrawals() repository.WithdrawalRepository { return &withdrawals{s.view()} }
func (s *Store) Payments() repository.PaymentRepository       { return &payments{s.view()} }
func (s *Store) Ledger() repository.LedgerRepository          { return &ledger{s.view()} }

// FailNextWrite makes the next write to table return err. Tables: accounts, packages,
// investments, withdrawals, payments, ledger.
func (s *Store) FailNextWrite(table string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail == nil {
		s.fail = map[string]error{}
	}
	s.fail[table] = err
}

// Ledger entries in insertion order, for assertions.
func (s *Store) LedgerEntries() []models.LedgerEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.LedgerEntry(nil), s.data.ledger...)
}

// repos binds repositories either to a transaction's working copy (d set) or to the live data under the store lock.
type repos struct {
	s      *Store
	d      *dataset
	locked bool
}

func (r *repos) Accounts() repository.AccountRepository       { return &accounts{r} }
func (r *repos) Packages() repository.PackageRepository       { return &packages{r} }
func (r *repos) Investments() repository.InvestmentRepository { return &investments{r} }
func (r *repos) Withdrawals() repository.WithdrawalRepository { return &withdrawals{r} }
func (r *repos) Payments() repository.PaymentRepository       { return &payments{r} }
func (r *repos) Ledger() repository.LedgerRepository          { return &ledger{r} }

// with runs fn against the right dataset, taking the store lock for non-transactional calls.
func (r *repos) with(fn func(d *dataset) error) error {
	if r.locked {
		r.s.mu.Lock()
		defer r.s.mu.Unlock()
		return fn(r.s.data)
	}
	return fn(r.d)
}

func (r *repos) write(table string, fn func(d *dataset) error) error {
	return r.with(func(d *dataset) error {
		if err, ok := r.s.fail[table]; ok {
			delete(r.s.fail, table)
			return err
		}
		return fn(d)
	})
}

func (r *repos) stamp(created, updated *time.Time) {
	now := r.s.now()
	if created != nil && created.IsZero() {
		*created = now
	}
	if updated != nil {
		*updated = now
	}
}

type accounts struct{ *repos }

func (r *accounts) Create(_ context.Context, a *models.Account) error {
	return r.write("accounts", func(d *dataset) error {
		for _, other := range d.accounts {
			if strings.EqualFold(other.Email, a.Email) || other.Phone == a.Phone || other.ReferralCode == a.ReferralCode {
				return gorm.ErrDuplicatedKey
			}
		}
		a.ID = d.next("accounts")
		r.stamp(&a.CreatedAt, &a.UpdatedAt)
		d.accounts[a.ID] = *a
		return nil
	})
}

func (r *accounts) GetByID(_ context.Context, id uint) (*models.Account, error) {
	var out *models.Account
	err := r.with(func(d *dataset) error {
		a, ok := d.accounts[id]
		if !ok {
			return gorm.ErrRecordNotFound
		}
		out = &a
		return nil
	})
	return out, err
}

func (r *accounts) GetByIDForUpdate(ctx context.Context, id uint) (*models.Account, error) {
	return r.GetByID(ctx, id)
}

func (r *accounts) find(match func(a models.Account) bool) (*models.Account, error) {
	var out *models.Account
	err := r.with(func(d *dataset) error {
		for _, a := range d.accounts {
			if match(a) {
				a := a
				out = &a
				return nil
			}
		}
		return gorm.ErrRecordNotFound
	})
	return out, err
}

func (r *accounts) GetByEmail(_ context.Context, email string) (*models.Account, error) {
	return r.find(func(a models.Account) bool { return strings.EqualFold(a.Email, email) })
}

func (r *accounts) GetByPhone(_ context.Context, phone string) (*models.Account, error) {
	return r.find(func(a models.Account) bool { return a.Phone == phone })
}

func (r *accounts) GetByReferralCode(_ context.Context, code string) (*models.Account, error) {
	return r.find(func(a models.Account) bool { return a.ReferralCode == code })
}

func (r *accounts) Update(_ context.Context, a *models.Account) error {
	if a.Balance < 0 || a.TotalInvested < 0 || a.TotalEarned < 0 {
		return repository.ErrNegativeBalance
	}
	return r.write("accounts", func(d *dataset) error {
		if _, ok := d.accounts[a.ID]; !ok {
			return gorm.ErrRecordNotFound
		}
		r.stamp(nil, &a.UpdatedAt)
		d.accounts[a.ID] = *a
		return nil
	})
}

func (r *accounts) IncrementReferralCount(_ context.Context, id uint) error {
	return r.write("accounts", func(d *dataset) error {
		a, ok := d.accounts[id]
		if !ok {
			return gorm.ErrRecordNotFound
		}
		a.ReferralCount++
		d.accounts[id] = a
		return nil
	})
}

func (r *accounts) ListReferred(_ context.Context, code string) ([]models.Account, error) {
	var out []models.Account
	err := r.with(func(d *dataset) error {
		for _, a := range d.accounts {
			if a.ReferredBy != nil && *a.ReferredBy == code {
				out = append(out, a)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, err
}

func (r *accounts) SetFCMToken(_ context.Context, id uint, token string) error {
	return r.write("accounts", func(d *dataset) error {
		a, ok := d.accounts[id]
		if !ok {
			return gorm.ErrRecordNotFound
		}
		a.FCMToken = token
		d.accounts[id] = a
		return nil
	})
}

type packages struct{ *repos }

func (r *packages) Create(_ context.Context, p *models.InvestmentPackage) error {
	return r.write("packages", func(d *dataset) error {
		for _, other := range d.packages {
			if other.Name == p.Name {
				return gorm.ErrDuplicatedKey
			}
		}
		p.ID = d.next("packages")
		r.stamp(&p.CreatedAt, &p.UpdatedAt)
		d.packages[p.ID] = *p
		return nil
	})
}

func (r *packages) Update(_ context.Context, p *models.InvestmentPackage) error {
	return r.write("packages", func(d *dataset) error {
		if _, ok := d.packages[p.ID]; !ok {
			return gorm.ErrRecordNotFound
		}
		for _, other := range d.packages {
			if other.ID != p.ID && other.Name == p.Name {
				return gorm.ErrDuplicatedKey
			}
		}
		r.stamp(nil, &p.UpdatedAt)
		d.packages[p.ID] = *p
		return nil
	})
}

func (r *packages) Delete(_ context.Context, id uint) error {
	return r.write("packages", func(d *dataset) error {
		if _, ok := d.packages[id]; !ok {
			return gorm.ErrRecordNotFound
		}
		delete(d.packages, id)
		return nil
	})
}

func (r *packages) GetByID(_ context.Context, id uint) (*models.InvestmentPackage, error) {
	var out *models.InvestmentPackage
	err := r.with(func(d *dataset) error {
		p, ok := d.packages[id]
		if !ok {
			return gorm.ErrRecordNotFound
		}
		out = &p
		return nil
	})
	return out, err
}

func (r *packages) GetByName(_ context.Context, name string) (*models.InvestmentPackage, error) {
	var out *models.InvestmentPackage
	err := r.with(func(d *dataset) error {
		for _, p := range d.packages {
			if p.Name == name {
				p := p
				out = &p
				return nil
			}
		}
		return gorm.ErrRecordNotFound
	})
	return out, err
}

func (r *packages) List(_ context.Context, activeOnly bool) ([]models.InvestmentPackage, error) {
	var out []models.InvestmentPackage
	err := r.with(func(d *dataset) error {
		for _, p := range d.packages {
			if !activeOnly || p.IsActive {
				out = append(out, p)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool {
		if out[i].MinAmount != out[j].MinAmount {
			return out[i].MinAmount < out[j].MinAmount
		}
		return out[i].ID < out[j].ID
	})
	return out, err
}

func (r *packages) Count(_ context.Context) (int64, error) {
	var n int64
	err := r.with(func(d *dataset) error {
		n = int64(len(d.packages))
		return nil
	})
	return n, err
}

type investments struct{ *repos }

func (r *investments) Create(_ context.Context, inv *models.Investment) error {
	return r.write("investments", func(d *dataset) error {
		inv.ID = d.next("investments")
		r.stamp(&inv.CreatedAt, &inv.UpdatedAt)
		stored := *inv
		stored.Package, stored.Account = nil, nil
		d.investments[inv.ID] = stored
		return nil
	})
}

func (r *investments) Update(_ context.Context, inv *models.Investment) error {
	return r.write("investments", func(d *dataset) error {
		if _, ok := d.investments[inv.ID]; !ok {
			return gorm.ErrRecordNotFound
		}
		r.stamp(nil, &inv.UpdatedAt)
		stored := *inv
		stored.Package, stored.Account = nil, nil
		d.investments[inv.ID] = stored
		return nil
	})
}

func (r *investments) GetByIDForUpdate(_ context.Context, id uint) (*models.Investment, error) {
	var out *models.Investment
	err := r.with(func(d *dataset) error {
		inv, ok := d.investments[id]
		if !ok {
			return gorm.ErrRecordNotFound
		}
		out = &inv
		return nil
	})
	return out, err
}

func (r *investments) CountByAccountAndPackage(_ context.Context, accountID, packageID uint) (int64, error) {
	var n int64
	err := r.with(func(d *dataset) error {
		for _, inv := range d.investments {
			if inv.AccountID == accountID && inv.PackageID == packageID {
				n++
			}
		}
		return nil
	})
	return n, err
}

func (r *investments) CountByPackage(_ context.Context, packageID uint) (int64, error) {
	var n int64
	err := r.with(func(d *dataset) error {
		for _, inv := range d.investments {
			if inv.PackageID == packageID {
				n++
			}
		}
		return nil
	})
	return n, err
}

func (r *investments) ListByAccount(_ context.Context, accountID uint, status string, limit, offset int) ([]models.Investment, int64, error) {
	var out []models.Investment
	err := r.with(func(d *dataset) error {
		for _, inv := range d.investments {
			if inv.AccountID == accountID && (status == "" || inv.Status == status) {
				if p, ok := d.packages[inv.PackageID]; ok {
					p := p
					inv.Package = &p
				}
				out = append(out, inv)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	total := int64(len(out))
	return paginate(out, limit, offset), total, err
}

func (r *investments) ListDue(_ context.Context, accountID uint, now time.Time, limit int) ([]models.Investment, error) {
	var out []models.Investment
	err := r.with(func(d *dataset) error {
		for _, inv := range d.investments {
			if inv.Status == domain.InvestmentActive && !inv.EndDate.After(now) && (accountID == 0 || inv.AccountID == accountID) {
				out = append(out, inv)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].EndDate.Before(out[j].EndDate) })
	return paginate(out, limit, 0), err
}

type withdrawals struct{ *repos }

func (r *withdrawals) Create(_ context.Context, w *models.WithdrawalRequest) error {
	return r.write("withdrawals", func(d *dataset) error {
		w.ID = d.next("withdrawals")
		r.stamp(&w.CreatedAt, &w.UpdatedAt)
		stored := *w
		stored.Account = nil
		d.withdrawals[w.ID] = stored
		return nil
	})
}

func (r *withdrawals) Update(_ context.Context, w *models.WithdrawalRequest) error {
	return r.write("withdrawals", func(d *dataset) error {
		if _, ok := d.withdrawals[w.ID]; !ok {
			return gorm.ErrRecordNotFound
		}
		r.stamp(nil, &w.UpdatedAt)
		stored := *w
		stored.Account = nil
		d.withdrawals[w.ID] = stored
		return nil
	})
}

func (r *withdrawals) GetByIDForUpdate(_ context.Context, id uint) (*models.WithdrawalRequest, error) {
	var out *models.WithdrawalRequest
	err := r.with(func(d *dataset) error {
		w, ok := d.withdrawals[id]
		if !ok {
			return gorm.ErrRecordNotFound
		}
		out = &w
		return nil
	})
	return out, err
}

func (r *withdrawals) ListByAccount(_ context.Context, accountID uint, status string, limit, offset int) ([]models.WithdrawalRequest, int64, error) {
	var out []models.WithdrawalRequest
	err := r.with(func(d *dataset) error {
		for _, w := range d.withdrawals {
			if w.AccountID == accountID && (status == "" || w.Status == status) {
				out = append(out, w)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	total := int64(len(out))
	return paginate(out, limit, offset), total, err
}

type payments struct{ *repos }

func (r *payments) Create(_ context.Context, p *models.PaymentRequest) error {
	return r.write("payments", func(d *dataset) error {
		p.ID = d.next("payments")
		r.stamp(&p.CreatedAt, &p.UpdatedAt)
		stored := *p
		stored.Account = nil
		d.payments[p.ID] = stored
		return nil
	})
}

func (r *payments) Update(_ context.Context, p *models.PaymentRequest) error {
	return r.write("payments", func(d *dataset) error {
		if _, ok := d.payments[p.ID]; !ok {
			return gorm.ErrRecordNotFound
		}
		r.stamp(nil, &p.UpdatedAt)
		stored := *p
		stored.Account = nil
		d.payments[p.ID] = stored
		return nil
	})
}

func (r *payments) GetByIDForUpdate(_ context.Context, id uint) (*models.PaymentRequest, error) {
	var out *models.PaymentRequest
	err := r.with(func(d *dataset) error {
		p, ok := d.payments[id]
		if !ok {
			return gorm.ErrRecordNotFound
		}
		out = &p
		return nil
	})
	return out, err
}

func (r *payments) ListByAccount(_ context.Context, accountID uint, status string, limit, offset int) ([]models.PaymentRequest, int64, error) {
	var out []models.PaymentRequest
	err := r.with(func(d *dataset) error {
		for _, p := range d.payments {
			if p.AccountID == accountID && (status == "" || p.Status == status) {
				out = append(out, p)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	total := int64(len(out))
	return paginate(out, limit, offset), total, err
}

type ledger struct{ *repos }

func (r *ledger) Create(_ context.Context, e *models.LedgerEntry) error {
	return r.write("ledger", func(d *dataset) error {
		e.ID = d.next("ledger")
		r.stamp(&e.CreatedAt, nil)
		d.ledger = append(d.ledger, *e)
		return nil
	})
}

func (r *ledger) ListByAccount(_ context.Context, accountID uint, limit, offset int) ([]models.LedgerEntry, int64, error) {
	var out []models.LedgerEntry
	err := r.with(func(d *dataset) error {
		for i := len(d.ledger) - 1; i >= 0; i-- {
			if d.ledger[i].AccountID == accountID {
				out = append(out, d.ledger[i])
			}
		}
		return nil
	})
	total := int64(len(out))
	return paginate(out, limit, offset), total, err
}

func (r *ledger) SumByAccountAndType(_ context.Context, accountID uint, entryType string) (int64, error) {
	var sum int64
	err := r.with(func(d *dataset) error {
		for _, e := range d.ledger {
			if e.AccountID == accountID && e.Type == entryType {
				sum += e.Amount
			}
		}
		return nil
	})
	return sum, err
}

func paginate[T any](list []T, limit, offset int) []T {
	if offset >= len(list) {
		return nil
	}
	list = list[offset:]
	if limit > 0 && limit < len(list) {
		list = list[:limit]
	}
	return list
}
