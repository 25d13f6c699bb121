package service

import (
	"archive/zip"
	"bytes"
	"encoding/csv"
	"io"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	horseModel "horseclub_backend/internals/features/club/horses/model"
	riderModel "horseclub_backend/internals/features/club/riders/model"
	"horseclub_backend/internals/helpers/dbtime"
)

func sp(s string) *string { return &s }
func ip(i int) *int       { return &i }

func readCSV(t *testing.T, b []byte) [][]string {
	t.Helper()
	require.True(t, bytes.HasPrefix(b, utf8BOM), "missing BOM")
	r := csv.NewReader(bytes.NewReader(b[len(utf8BOM):]))
	r.Comma = ';'
	recs, err := r.ReadAll()
	require.NoError(t, err)
	return recs
}

func TestWriteBillingCSV(t *testing.T) {
	loc, err := time.LoadLocation("Europe/Bratislava")
	if err != nil {
		loc = time.FixedZone("CET", 3600)
	}
	paid := time.Date(2025, 3, 4, 16, 30, 0, 0, time.UTC)
	rows := []BillingRow{
		{
			ID: "c1", ChargeDate: time.Date(2025, 3, 4, 0, 0, 0, 0, time.UTC),
			RiderName: sp("Jana Kováčová"), HorseName: sp("Bella"),
			Discipline: sp("dressage"), DurationMin: ip(45),
			AmountCents: 3550, Currency: "EUR", Status: "paid",
			PaidAt: &paid, PaidMethod: sp("cash"), Note: sp("line1\nline2"),
		},
		{
			ID: "c2", ChargeDate: time.Date(2025, 3, 5, 0, 0, 0, 0, time.UTC),
			AmountCents: 5, Currency: "EUR", Status: "unpaid",
		},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteBillingCSV(&buf, rows, loc))
	recs := readCSV(t, buf.Bytes())

	require.Len(t, recs, 3)
	assert.Equal(t, billingHeader, recs[0])
	assert.Equal(t, []string{
		"c1", "2025-03-04", "Jana Kováčová", "Bella", "dressage", "45",
		"35.50", "EUR", "paid", paid.In(loc).Format("2006-01-02 15:04"), "cash", "", "line1 | line2",
	}, recs[1])
	assert.Equal(t, "0.05", recs[2][6])
	assert.Equal(t, "", recs[2][2], "missing rider renders empty")
}

func TestWriteOfficialPack(t *testing.T) {
	bd := time.Date(2010, 5, 1, 0, 0, 0, 0, time.UTC)
	pack := &OfficialPack{
		Period: Period{
			From: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
			To:   time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC),
		},
		Horses: []horseModel.HorseModel{
			{Name: "Bella", PassportNo: sp("SVK-123"), BirthYear: ip(2015), Disciplines: pq.StringArray{"dressage", "show-jumping"}},
		},
		Riders: []riderModel.RiderModel{
			{FirstName: "Jana", LastName: "Kováčová", BirthDate: &bd, LicenseNo: sp("SJF-9")},
		},
		Trainings: []TrainingRow{
			{
				TrainingDate: time.Date(2025, 2, 10, 0, 0, 0, 0, time.UTC),
				StartTime:    dbtime.MustParse("17:30"),
				DurationMin:  60, Discipline: "dressage",
				HorseName: sp("Bella"), RiderName: sp("Jana Kováčová"),
			},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteOfficialPack(&buf, pack, time.Date(2025, 4, 1, 8, 0, 0, 0, time.UTC)))

	zr, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	require.NoError(t, err)
	assert.Equal(t, "period 2025-01-01..2025-03-31", zr.Comment)

	files := map[string][][]string{}
	for _, f := range zr.File {
		rc, err := f.Open()
		require.NoError(t, err)
		b, err := io.ReadAll(rc)
		require.NoError(t, err)
		rc.Close()
		files[f.Name] = readCSV(t, b)
	}
	require.Len(t, files, 3)

	assert.Equal(t, []string{"Bella", "", "2015", "", "SVK-123", "", "", "dressage,show-jumping"}, files["horses.csv"][1])
	assert.Equal(t, []string{"Jana", "Kováčová", "2010-05-01", "SJF-9", "", ""}, files["riders.csv"][1])
	assert.Equal(t, []string{"2025-02-10", "17:30", "60", "dressage", "Bella", "", "Jana Kováčová", "", ""}, files["trainings.csv"][1])
}

func TestPeriodPaidBounds(t *testing.T) {
	loc := time.FixedZone("CET", 3600)
	p := Period{
		From: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		To:   time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC),
	}
	from, to := p.paidBounds(loc)
	assert.Equal(t, time.Date(2024, 12, 31, 23, 0, 0, 0, time.UTC), from)
	assert.Equal(t, time.Date(2025, 1, 31, 23, 0, 0, 0, time.UTC), to)
}
