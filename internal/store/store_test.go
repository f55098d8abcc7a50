package store

import (
	"errors"
	"path/filepath"
	"testing"

	"proforma/internal/model"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	st, err := New(filepath.Join(t.TempDir(), "data", "proforma.db"))
	if err != nil {
		t.Fatalf("init store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func TestImportLog_Lifecycle(t *testing.T) {
	st := newTestStore(t)

	id, err := st.CreateImportLog("run-1", "normalize", "t12.xlsx", "Sunrise", "Sep 2025")
	if err != nil {
		t.Fatalf("CreateImportLog: %v", err)
	}
	if err := st.UpdateImportLog(id, ImportLogUpdate{
		TotalSheets:     3,
		ProcessedSheets: 2,
		SkippedSheets:   1,
		TotalLines:      14,
		Status:          RunCompleted,
	}); err != nil {
		t.Fatalf("UpdateImportLog: %v", err)
	}

	got, err := st.GetImportLog("run-1")
	if err != nil {
		t.Fatalf("GetImportLog: %v", err)
	}
	if got.ID != id || got.Status != RunCompleted || got.TotalLines != 14 || got.CompletedAt == nil {
		t.Fatalf("unexpected log: %+v", got)
	}

	if _, err := st.GetImportLog("missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	if n, err := st.CountImportLogs(); err != nil || n != 1 {
		t.Fatalf("CountImportLogs=%d err=%v", n, err)
	}
}

func TestListImportLogs_NewestFirst(t *testing.T) {
	st := newTestStore(t)
	for _, run := range []string{"a", "b", "c"} {
		if _, err := st.CreateImportLog(run, "normalize", "", "", ""); err != nil {
			t.Fatalf("CreateImportLog %s: %v", run, err)
		}
	}

	logs, err := st.ListImportLogs(2)
	if err != nil {
		t.Fatalf("ListImportLogs: %v", err)
	}
	if len(logs) != 2 || logs[0].RunID != "c" || logs[1].RunID != "b" {
		t.Fatalf("unexpected order: %+v", logs)
	}
}

func TestSheetMetaAndProvenance(t *testing.T) {
	st := newTestStore(t)
	id, err := st.CreateImportLog("run-2", "export", "book.xlsx", "", "")
	if err != nil {
		t.Fatalf("CreateImportLog: %v", err)
	}

	layout := BuildLayoutJSON(map[string]int{"monthRow": 5})
	if err := st.InsertSheetMeta(model.SheetMeta{
		SheetName:   "T12",
		SheetType:   string(model.SheetTypeStatement),
		Confidence:  1,
		TotalRows:   40,
		LayoutJSON:  layout,
		Status:      "processed",
		ImportLogID: id,
		SourceFile:  "book.xlsx",
	}); err != nil {
		t.Fatalf("InsertSheetMeta: %v", err)
	}
	metas, err := st.ListSheetMeta(id)
	if err != nil {
		t.Fatalf("ListSheetMeta: %v", err)
	}
	if len(metas) != 1 || metas[0].LayoutJSON != `{"monthRow":5}` {
		t.Fatalf("unexpected metas: %+v", metas)
	}

	entries := model.Provenance{
		{Token: model.KeyRentalIncome, SourceSheet: "T12", SourceCell: "B7", MatchedAlias: "Rental Income"},
		{Token: model.KeyTruckRental, SourceSheet: "T12", Note: "all-zero row B9 dropped"},
	}
	if err := st.InsertProvenance(id, entries); err != nil {
		t.Fatalf("InsertProvenance: %v", err)
	}
	got, err := st.ListProvenance(id)
	if err != nil {
		t.Fatalf("ListProvenance: %v", err)
	}
	if len(got) != 2 || got[0] != entries[0] || got[1] != entries[1] {
		t.Fatalf("provenance mismatch: %+v", got)
	}
	if n, _ := st.CountProvenance(); n != 2 {
		t.Fatalf("CountProvenance=%d", n)
	}
}

func TestListPeriods(t *testing.T) {
	st := newTestStore(t)
	mustCreate := func(run, facility, period string) int64 {
		id, err := st.CreateImportLog(run, "normalize", "", facility, period)
		if err != nil {
			t.Fatalf("CreateImportLog: %v", err)
		}
		return id
	}
	mustCreate("r1", "Sunrise", "Aug 2025")
	id := mustCreate("r2", "Sunrise", "Sep 2025")
	mustCreate("r3", "Sunrise", "Sep 2025")
	if err := st.UpdateImportLog(id, ImportLogUpdate{Status: RunFailed}); err != nil {
		t.Fatalf("UpdateImportLog: %v", err)
	}

	periods, err := st.ListPeriods()
	if err != nil {
		t.Fatalf("ListPeriods: %v", err)
	}
	if len(periods) != 2 {
		t.Fatalf("periods=%+v", periods)
	}
	if p := periods[0]; p.Period != "Sep 2025" || p.Runs != 2 || p.Failed != 1 || p.LastRunID != "r3" {
		t.Fatalf("unexpected first period: %+v", p)
	}
}

func TestLastPeriod(t *testing.T) {
	st := newTestStore(t)

	f, p, err := st.GetLastPeriod()
	if err != nil || f != "" || p != "" {
		t.Fatalf("empty store: %q %q %v", f, p, err)
	}
	if err := st.SetLastPeriod("Sunrise", "Sep 2025"); err != nil {
		t.Fatalf("SetLastPeriod: %v", err)
	}
	if err := st.SetLastPeriod("Sunrise", "Oct 2025"); err != nil {
		t.Fatalf("SetLastPeriod: %v", err)
	}
	f, p, _ = st.GetLastPeriod()
	if f != "Sunrise" || p != "Oct 2025" {
		t.Fatalf("got %q %q", f, p)
	}
}
