package service

import (
	"archive/zip"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"

	helper "horseclub_backend/internals/helpers"
	"horseclub_backend/internals/helpers/dbtime"
)

// BOM so Excel reads UTF-8 names with diacritics.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

func newCSV(w io.Writer) (*csv.Writer, error) {
	if _, err := w.Write(utf8BOM); err != nil {
		return nil, err
	}
	cw := csv.NewWriter(w)
	cw.Comma = ';'
	return cw, nil
}

func str(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

func intStr(p *int) string {
	if p == nil {
		return ""
	}
	return strconv.Itoa(*p)
}

func dateStr(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02")
}

var billingHeader = []string{
	"id", "date", "rider", "horse", "discipline", "duration_min",
	"amount", "currency", "status", "paid_at", "paid_method", "paid_reference", "note",
}

// WriteBillingCSV writes billing.csv (';' separator, amounts in currency units).
func WriteBillingCSV(w io.Writer, rows []BillingRow, loc *time.Location) error {
	cw, err := newCSV(w)
	if err != nil {
		return err
	}
	if err := cw.Write(billingHeader); err != nil {
		return err
	}
	for _, r := range rows {
		paidAt := dbtime.FormatLocal(r.PaidAt, loc, "2006-01-02 15:04")
		rec := []string{
			r.ID,
			dateStr(&r.ChargeDate),
			str(r.RiderName),
			str(r.HorseName),
			str(r.Discipline),
			intStr(r.DurationMin),
			helper.FormatCents(r.AmountCents),
			r.Currency,
			r.Status,
			paidAt,
			str(r.PaidMethod),
			str(r.PaidReference),
			strings.ReplaceAll(str(r.Note), "\n", " | "),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func writeHorses(w io.Writer, pack *OfficialPack) error {
	cw, err := newCSV(w)
	if err != nil {
		return err
	}
	if err := cw.Write([]string{"name", "breed", "birth_year", "sex", "passport_no", "microchip", "owner", "disciplines"}); err != nil {
		return err
	}
	for _, h := range pack.Horses {
		if err := cw.Write([]string{
			h.Name, str(h.Breed), intStr(h.BirthYear), str(h.Sex),
			str(h.PassportNo), str(h.Microchip), str(h.OwnerName),
			strings.Join(h.Disciplines, ","),
		}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func writeRiders(w io.Writer, pack *OfficialPack) error {
	cw, err := newCSV(w)
	if err != nil {
		return err
	}
	if err := cw.Write([]string{"first_name", "last_name", "birth_date", "license_no", "email", "phone"}); err != nil {
		return err
	}
	for _, r := range pack.Riders {
		if err := cw.Write([]string{
			r.FirstName, r.LastName, dateStr(r.BirthDate),
			str(r.LicenseNo), str(r.Email), str(r.Phone),
		}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func writeTrainings(w io.Writer, pack *OfficialPack) error {
	cw, err := newCSV(w)
	if err != nil {
		return err
	}
	if err := cw.Write([]string{
		"date", "start_time", "duration_min", "discipline",
		"horse", "horse_passport_no", "rider", "rider_license_no", "trainer",
	}); err != nil {
		return err
	}
	for _, t := range pack.Trainings {
		if err := cw.Write([]string{
			dateStr(&t.TrainingDate), t.StartTime.Format("15:04"), strconv.Itoa(t.DurationMin), t.Discipline,
			str(t.HorseName), str(t.HorsePassportNo), str(t.RiderName), str(t.RiderLicenseNo), str(t.TrainerName),
		}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteOfficialPack writes a ZIP of horses.csv, riders.csv and trainings.csv.
func WriteOfficialPack(w io.Writer, pack *OfficialPack, generatedAt time.Time) error {
	zw := zip.NewWriter(w)
	files := []struct {
		name  string
		write func(io.Writer, *OfficialPack) error
	}{
		{"horses.csv", writeHorses},
		{"riders.csv", writeRiders},
		{"trainings.csv", writeTrainings},
	}
	for _, f := range files {
		fw, err := zw.CreateHeader(&zip.FileHeader{Name: f.name, Method: zip.Deflate, Modified: generatedAt})
		if err != nil {
			return err
		}
		if err := f.write(fw, pack); err != nil {
			return errors.Wrap(err, f.name)
		}
	}
	if err := zw.SetComment(fmt.Sprintf("period %s..%s", pack.Period.fromDate(), pack.Period.toDate())); err != nil {
		return err
	}
	return zw.Close()
}
