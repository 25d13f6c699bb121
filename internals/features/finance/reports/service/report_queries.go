package service

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"horseclub_backend/internals/constants"
	horseModel "horseclub_backend/internals/features/club/horses/model"
	riderModel "horseclub_backend/internals/features/club/riders/model"
	"horseclub_backend/internals/helpers/dbtime"
)

// Period: inclusive date range (YYYY-MM-DD) in the club timezone.
type Period struct {
	From time.Time
	To   time.Time
}

func (p Period) fromDate() string { return p.From.Format("2006-01-02") }
func (p Period) toDate() string   { return p.To.Format("2006-01-02") }

// paid_at is UTC; day bounds follow the club timezone.
func (p Period) paidBounds(loc *time.Location) (time.Time, time.Time) {
	return dbtime.StartOfDay(p.From, loc), dbtime.StartOfDay(p.To.AddDate(0, 0, 1), loc)
}

type MethodTotal struct {
	PaidMethod  string `json:"paid_method"`
	Currency    string `json:"currency"`
	Count       int64  `json:"count"`
	AmountCents int64  `json:"amount_cents"`
}

type StatusTotal struct {
	Currency    string `json:"currency"`
	Count       int64  `json:"count"`
	AmountCents int64  `json:"amount_cents"`
}

type CashdeskReport struct {
	From   string        `json:"from"`
	To     string        `json:"to"`
	Paid   []MethodTotal `json:"paid"`
	Unpaid []StatusTotal `json:"unpaid"`
	Void   []StatusTotal `json:"void"`
	// total paid per currency
	PaidTotals map[string]int64 `json:"paid_totals"`
}

const chargeDateExpr = "COALESCE(t.training_date, billing_charges.created_at::date)"

// Cashdesk: income per paid_method + outstanding + voided in the period.
// The three queries run in parallel.
func Cashdesk(ctx context.Context, db *gorm.DB, p Period, loc *time.Location) (*CashdeskReport, error) {
	rep := &CashdeskReport{
		From:       p.fromDate(),
		To:         p.toDate(),
		Paid:       []MethodTotal{},
		Unpaid:     []StatusTotal{},
		Void:       []StatusTotal{},
		PaidTotals: map[string]int64{},
	}
	paidFrom, paidTo := p.paidBounds(loc)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return errors.Wrap(db.WithContext(gctx).
			Table("billing_charges").
			Select("COALESCE(paid_method, 'other') AS paid_method, currency, COUNT(*) AS count, COALESCE(SUM(amount_cents), 0) AS amount_cents").
			Where("status = ? AND paid_at >= ? AND paid_at < ?", constants.ChargePaid, paidFrom, paidTo).
			Group("paid_method, currency").
			Order("paid_method, currency").
			Scan(&rep.Paid).Error, "paid totals")
	})
	statusTotals := func(status string, out *[]StatusTotal) func() error {
		return func() error {
			return errors.Wrap(db.WithContext(gctx).
				Table("billing_charges").
				Joins("LEFT JOIN trainings t ON t.id = billing_charges.training_id").
				Select("billing_charges.currency AS currency, COUNT(*) AS count, COALESCE(SUM(billing_charges.amount_cents), 0) AS amount_cents").
				Where("billing_charges.status = ?", status).
				Where(chargeDateExpr+" BETWEEN ? AND ?", p.fromDate(), p.toDate()).
				Group("billing_charges.currency").
				Order("billing_charges.currency").
				Scan(out).Error, status+" totals")
		}
	}
	g.Go(statusTotals(constants.ChargeUnpaid, &rep.Unpaid))
	g.Go(statusTotals(constants.ChargeVoid, &rep.Void))

	if err := g.Wait(); err != nil {
		return nil, err
	}
	for _, m := range rep.Paid {
		rep.PaidTotals[m.Currency] += m.AmountCents
	}
	return rep, nil
}

// BillingRow: one billing.csv line.
type BillingRow struct {
	ID            string     `gorm:"column:id"`
	ChargeDate    time.Time  `gorm:"column:charge_date"`
	RiderName     *string    `gorm:"column:rider_name"`
	HorseName     *string    `gorm:"column:horse_name"`
	Discipline    *string    `gorm:"column:discipline"`
	DurationMin   *int       `gorm:"column:duration_min"`
	AmountCents   int64      `gorm:"column:amount_cents"`
	Currency      string     `gorm:"column:currency"`
	Status        string     `gorm:"column:status"`
	PaidAt        *time.Time `gorm:"column:paid_at"`
	PaidMethod    *string    `gorm:"column:paid_method"`
	PaidReference *string    `gorm:"column:paid_reference"`
	Note          *string    `gorm:"column:note"`
}

func LoadBillingRows(ctx context.Context, db *gorm.DB, p Period, status string) ([]BillingRow, error) {
	q := db.WithContext(ctx).
		Table("billing_charges").
		Joins("LEFT JOIN trainings t ON t.id = billing_charges.training_id").
		Joins("LEFT JOIN riders r ON r.id = billing_charges.rider_id").
		Joins("LEFT JOIN horses h ON h.id = billing_charges.horse_id").
		Select(`billing_charges.id::text AS id, ` + chargeDateExpr + ` AS charge_date,
			NULLIF(TRIM(COALESCE(r.first_name, '') || ' ' || COALESCE(r.last_name, '')), '') AS rider_name,
			h.name AS horse_name, t.discipline, t.duration_min,
			billing_charges.amount_cents, billing_charges.currency, billing_charges.status,
			billing_charges.paid_at, billing_charges.paid_method, billing_charges.paid_reference, billing_charges.note`).
		Where(chargeDateExpr+" BETWEEN ? AND ?", p.fromDate(), p.toDate())
	if status != "" {
		q = q.Where("billing_charges.status = ?", status)
	}
	var rows []BillingRow
	err := q.Order("charge_date ASC, billing_charges.created_at ASC").Scan(&rows).Error
	return rows, errors.Wrap(err, "load billing rows")
}

// TrainingRow: one trainings.csv line of the official pack.
type TrainingRow struct {
	TrainingDate    time.Time  `gorm:"column:training_date"`
	StartTime       dbtime.Tod `gorm:"column:start_time"`
	DurationMin     int        `gorm:"column:duration_min"`
	Discipline      string     `gorm:"column:discipline"`
	Status          string     `gorm:"column:status"`
	HorseName       *string    `gorm:"column:horse_name"`
	HorsePassportNo *string    `gorm:"column:horse_passport_no"`
	RiderName       *string    `gorm:"column:rider_name"`
	RiderLicenseNo  *string    `gorm:"column:rider_license_no"`
	TrainerName     *string    `gorm:"column:trainer_name"`
}

// OfficialPack: data for the federation (SJF) / ŠVPS export.
type OfficialPack struct {
	Period    Period
	Horses    []horseModel.HorseModel
	Riders    []riderModel.RiderModel
	Trainings []TrainingRow
}

func LoadOfficialPack(ctx context.Context, db *gorm.DB, p Period) (*OfficialPack, error) {
	pack := &OfficialPack{Period: p}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return errors.Wrap(db.WithContext(gctx).Where("is_active = TRUE").Order("name ASC").Find(&pack.Horses).Error, "load horses")
	})
	g.Go(func() error {
		return errors.Wrap(db.WithContext(gctx).Where("is_active = TRUE").Order("last_name ASC, first_name ASC").Find(&pack.Riders).Error, "load riders")
	})
	g.Go(func() error {
		return errors.Wrap(db.WithContext(gctx).
			Table("trainings").
			Joins("LEFT JOIN horses h ON h.id = trainings.horse_id").
			Joins("LEFT JOIN riders r ON r.id = trainings.rider_id").
			Joins("LEFT JOIN trainers tr ON tr.id = trainings.trainer_id").
			Select(`trainings.training_date, trainings.start_time, trainings.duration_min, trainings.discipline, trainings.status,
				h.name AS horse_name, h.passport_no AS horse_passport_no,
				NULLIF(TRIM(COALESCE(r.first_name, '') || ' ' || COALESCE(r.last_name, '')), '') AS rider_name,
				r.license_no AS rider_license_no, tr.full_name AS trainer_name`).
			Where("trainings.training_date BETWEEN ? AND ?", p.fromDate(), p.toDate()).
			Where("trainings.status = ?", constants.TrainingCompleted).
			Order("trainings.training_date ASC, trainings.start_time ASC").
			Scan(&pack.Trainings).Error, "load trainings")
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return pack, nil
}
