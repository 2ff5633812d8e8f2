package memory

import (
	"bytes"
	"context"
	"slices"

	"github.com/doctor-smile-ledger/internal/domain/clinic"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// UserRepository implements clinic.UserRepository in memory
type UserRepository struct {
	store *Store
}

func (r *UserRepository) WithTx(pgx.Tx) clinic.UserRepository { return r }

func (r *UserRepository) Create(_ context.Context, user *clinic.User) error {
	var err error
	r.store.write(func(d *state) {
		for _, existing := range d.users {
			if existing.Phone == user.Phone {
				err = clinic.ErrDuplicatePhone{Phone: user.Phone}
				return
			}
		}
		d.users[user.ID] = *user
	})
	return err
}

func (r *UserRepository) GetByID(_ context.Context, id uuid.UUID) (*clinic.User, error) {
	var out *clinic.User
	r.store.read(func(d *state) {
		if u, ok := d.users[id]; ok {
			out = &u
		}
	})
	if out == nil {
		return nil, clinic.ErrUserNotFound{UserID: id}
	}
	return out, nil
}

func (r *UserRepository) GetByPhone(_ context.Context, phone string) (*clinic.User, error) {
	var out *clinic.User
	r.store.read(func(d *state) {
		for _, u := range d.users {
			if u.Phone == phone {
				out = &u
				return
			}
		}
	})
	if out == nil {
		return nil, clinic.ErrUserNotFound{Phone: phone}
	}
	return out, nil
}

func (r *UserRepository) CountByRole(_ context.Context, role clinic.Role) (int64, error) {
	var n int64
	r.store.read(func(d *state) {
		for _, u := range d.users {
			if u.Role == role {
				n++
			}
		}
	})
	return n, nil
}

// PartnerRepository implements clinic.PartnerRepository in memory
type PartnerRepository struct {
	store *Store
}

func (r *PartnerRepository) WithTx(pgx.Tx) clinic.PartnerRepository { return r }

func (r *PartnerRepository) Create(_ context.Context, p *clinic.Partner) error {
	var err error
	r.store.write(func(d *state) {
		for _, existing := range d.partners {
			switch {
			case existing.UserID == p.UserID:
				err = clinic.ErrDuplicatePartner{Key: p.UserID.String()}
				return
			case existing.UniqueCode == p.UniqueCode:
				err = clinic.ErrDuplicatePartner{Key: p.UniqueCode}
				return
			}
		}
		d.partners[p.ID] = *p
	})
	return err
}

func (r *PartnerRepository) List(_ context.Context) ([]*clinic.Partner, error) {
	out := []*clinic.Partner{}
	r.store.read(func(d *state) {
		for _, p := range d.partners {
			out = append(out, &p)
		}
	})
	slices.SortFunc(out, func(a, b *clinic.Partner) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return bytes.Compare(a.ID[:], b.ID[:])
	})
	return out, nil
}

func (r *PartnerRepository) GetByUserID(_ context.Context, userID uuid.UUID) (*clinic.Partner, error) {
	return r.find(func(p clinic.Partner) bool { return p.UserID == userID }, userID.String())
}

func (r *PartnerRepository) GetByCode(_ context.Context, code string) (*clinic.Partner, error) {
	return r.find(func(p clinic.Partner) bool { return p.UniqueCode == code }, code)
}

func (r *PartnerRepository) find(match func(clinic.Partner) bool, key string) (*clinic.Partner, error) {
	var out *clinic.Partner
	r.store.read(func(d *state) {
		for _, p := range d.partners {
			if match(p) {
				out = &p
				return
			}
		}
	})
	if out == nil {
		return nil, clinic.ErrPartnerNotFound{Key: key}
	}
	return out, nil
}

// ServiceRepository implements clinic.ServiceRepository in memory
type ServiceRepository struct {
	store *Store
}

func (r *ServiceRepository) WithTx(pgx.Tx) clinic.ServiceRepository { return r }

func (r *ServiceRepository) CreateIfAbsent(_ context.Context, s *clinic.Service) error {
	r.store.write(func(d *state) {
		for _, existing := range d.services {
			if existing.Name == s.Name {
				return
			}
		}
		d.services[s.ID] = *s
	})
	return nil
}

func (r *ServiceRepository) GetByID(_ context.Context, id uuid.UUID) (*clinic.Service, error) {
	var out *clinic.Service
	r.store.read(func(d *state) {
		if s, ok := d.services[id]; ok {
			out = &s
		}
	})
	if out == nil {
		return nil, clinic.ErrServiceNotFound{ServiceID: id}
	}
	return out, nil
}

func (r *ServiceRepository) List(_ context.Context) ([]*clinic.Service, error) {
	var out []*clinic.Service
	r.store.read(func(d *state) {
		for _, s := range d.services {
			out = append(out, &s)
		}
	})
	slices.SortFunc(out, func(a, b *clinic.Service) int {
		if a.Price != b.Price {
			if a.Price < b.Price {
				return -1
			}
			return 1
		}
		if a.Name < b.Name {
			return -1
		}
		if a.Name > b.Name {
			return 1
		}
		return 0
	})
	return out, nil
}

// AppointmentRepository implements clinic.AppointmentRepository in memory
type AppointmentRepository struct {
	store *Store
}

func (r *AppointmentRepository) WithTx(pgx.Tx) clinic.AppointmentRepository { return r }

func (r *AppointmentRepository) Create(_ context.Context, a *clinic.Appointment) error {
	r.store.write(func(d *state) { d.appointments[a.ID] = *a })
	return nil
}

func (r *AppointmentRepository) GetByID(_ context.Context, id uuid.UUID) (*clinic.Appointment, error) {
	var out *clinic.Appointment
	r.store.read(func(d *state) {
		if a, ok := d.appointments[id]; ok {
			out = &a
		}
	})
	if out == nil {
		return nil, clinic.ErrAppointmentNotFound{AppointmentID: id}
	}
	return out, nil
}

func (r *AppointmentRepository) LockForUpdate(ctx context.Context, id uuid.UUID) (*clinic.Appointment, error) {
	return r.GetByID(ctx, id)
}

func (r *AppointmentRepository) UpdateStatus(_ context.Context, id uuid.UUID, status clinic.AppointmentStatus) error {
	found := false
	r.store.write(func(d *state) {
		a, ok := d.appointments[id]
		if !ok {
			return
		}
		a.Status = status
		d.appointments[id] = a
		found = true
	})
	if !found {
		return clinic.ErrAppointmentNotFound{AppointmentID: id}
	}
	return nil
}

func (r *AppointmentRepository) List(_ context.Context, filter clinic.AppointmentFilter) ([]*clinic.Appointment, error) {
	var out []*clinic.Appointment
	r.store.read(func(d *state) {
		for _, a := range d.appointments {
			if filter.PatientID != nil && a.PatientID != *filter.PatientID {
				continue
			}
			if filter.Status != "" && a.Status != filter.Status {
				continue
			}
			out = append(out, &a)
		}
	})
	slices.SortFunc(out, func(a, b *clinic.Appointment) int { return b.CreatedAt.Compare(a.CreatedAt) })
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

// InvoiceRepository implements clinic.InvoiceRepository in memory
type InvoiceRepository struct {
	store *Store
}

func (r *InvoiceRepository) WithTx(pgx.Tx) clinic.InvoiceRepository { return r }

func (r *InvoiceRepository) Create(_ context.Context, inv *clinic.Invoice) error {
	var err error
	r.store.write(func(d *state) {
		for _, existing := range d.invoices {
			if existing.AppointmentID == inv.AppointmentID {
				err = clinic.ErrInvalidAppointmentState{AppointmentID: inv.AppointmentID, From: clinic.AppointmentCompleted, To: clinic.AppointmentCompleted}
				return
			}
		}
		d.invoices[inv.ID] = *inv
	})
	return err
}

func (r *InvoiceRepository) GetByAppointmentID(_ context.Context, appointmentID uuid.UUID) (*clinic.Invoice, error) {
	var out *clinic.Invoice
	r.store.read(func(d *state) {
		for _, inv := range d.invoices {
			if inv.AppointmentID == appointmentID {
				out = &inv
				return
			}
		}
	})
	if out == nil {
		return nil, clinic.ErrInvoiceNotFound{AppointmentID: appointmentID}
	}
	return out, nil
}

func (r *InvoiceRepository) MarkVoidByTransactionID(_ context.Context, transactionID uuid.UUID) error {
	r.store.write(func(d *state) {
		for id, inv := range d.invoices {
			if inv.TransactionID != nil && *inv.TransactionID == transactionID {
				inv.Status = clinic.InvoiceVoid
				d.invoices[id] = inv
			}
		}
	})
	return nil
}
