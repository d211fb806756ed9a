package offlinesync

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestExecuteCreateTwiceNeverOverwrites(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	scope := Scope{UserId: 1, CompanyId: "co-1"}

	first := &Operation{ID: 1, UserId: 1, CompanyId: "co-1", TableName: "customers", RecordId: "C1",
		Operation: OperationCreate, Data: Record{"name": "Aye Aye"}}
	if res := h.executor.Execute(ctx, first); !res.Success {
		t.Fatalf("first create: %+v", res)
	}

	second := &Operation{ID: 2, UserId: 1, CompanyId: "co-1", TableName: "customers", RecordId: "C1",
		Operation: OperationCreate, Data: Record{"name": "Someone Else"}}
	res := h.executor.Execute(ctx, second)
	if res.Success || res.Conflict {
		t.Fatalf("second create should fail, got %+v", res)
	}
	if !errors.Is(res.Err, ErrDuplicateRecord) {
		t.Fatalf("expected duplicate error, got %v", res.Err)
	}

	rec, err := h.customers.Get(ctx, scope, "C1")
	if err != nil {
		t.Fatalf("get C1: %v", err)
	}
	if rec["name"] != "Aye Aye" {
		t.Fatalf("record was overwritten: %v", rec["name"])
	}
}

func TestExecuteUpdate(t *testing.T) {
	scope := Scope{UserId: 1, CompanyId: "co-1"}

	t.Run("older server applies and stamps server time", func(t *testing.T) {
		h := newHarness(t)
		serverAt := h.clock.Now().Add(-time.Hour)
		h.products.Seed(scope, "P1", Record{"name": "Tea", "updated_at": serverAt})
		h.clock.Advance(time.Minute)

		op := &Operation{ID: 1, UserId: 1, CompanyId: "co-1", TableName: "products", RecordId: "P1",
			Operation: OperationUpdate, Data: Record{"name": "Green Tea", "updated_at": serverAt.Format(time.RFC3339Nano)}}
		res := h.executor.Execute(context.Background(), op)
		if !res.Success {
			t.Fatalf("expected success, got %+v", res)
		}
		rec, _ := h.products.Get(context.Background(), scope, "P1")
		if rec["name"] != "Green Tea" {
			t.Fatalf("update not applied: %v", rec)
		}
		if at, _ := rec["updated_at"].(time.Time); !at.Equal(h.clock.Now()) {
			t.Fatalf("updated_at = %v, want server time %v", rec["updated_at"], h.clock.Now())
		}
	})

	t.Run("newer server is a conflict with the full record", func(t *testing.T) {
		h := newHarness(t)
		serverAt := h.clock.Now()
		h.products.Seed(scope, "P1", Record{"name": "Tea", "price": "2.50", "updated_at": serverAt})

		op := &Operation{ID: 1, UserId: 1, CompanyId: "co-1", TableName: "products", RecordId: "P1",
			Operation: OperationUpdate, Data: Record{"name": "Coffee", "updated_at": serverAt.Add(-time.Second).Format(time.RFC3339Nano)}}
		res := h.executor.Execute(context.Background(), op)
		if !res.Conflict || res.Success || res.Err != nil {
			t.Fatalf("expected conflict, got %+v", res)
		}
		if res.ConflictData["id"] != "P1" || res.ConflictData["price"] != "2.50" {
			t.Fatalf("conflict data should be the server record, got %v", res.ConflictData)
		}
		rec, _ := h.products.Get(context.Background(), scope, "P1")
		if rec["name"] != "Tea" {
			t.Fatalf("conflicting update must not be applied")
		}
	})

	t.Run("missing record is not found, not conflict", func(t *testing.T) {
		h := newHarness(t)
		op := &Operation{ID: 1, UserId: 1, CompanyId: "co-1", TableName: "bills", RecordId: "B404",
			Operation: OperationUpdate, Data: Record{"updated_at": h.clock.Now().Format(time.RFC3339)}}
		res := h.executor.Execute(context.Background(), op)
		if res.Conflict || res.Success {
			t.Fatalf("expected failure, got %+v", res)
		}
		if !errors.Is(res.Err, ErrRecordNotFound) {
			t.Fatalf("expected not found, got %v", res.Err)
		}
	})

	t.Run("records are scoped by company", func(t *testing.T) {
		h := newHarness(t)
		h.bills.Seed(Scope{UserId: 1, CompanyId: "co-2"}, "B1", Record{"updated_at": h.clock.Now()})
		op := &Operation{ID: 1, UserId: 1, CompanyId: "co-1", TableName: "bills", RecordId: "B1",
			Operation: OperationUpdate, Data: Record{"updated_at": h.clock.Now().Format(time.RFC3339)}}
		if res := h.executor.Execute(context.Background(), op); !errors.Is(res.Err, ErrRecordNotFound) {
			t.Fatalf("expected not found across companies, got %+v", res)
		}
	})
}

func TestExecuteDeleteIsIdempotent(t *testing.T) {
	h := newHarness(t)
	scope := Scope{UserId: 1, CompanyId: "co-1"}
	h.payments.Seed(scope, "PAY1", Record{"amount": "10", "updated_at": h.clock.Now()})

	for i := 0; i < 2; i++ {
		op := &Operation{ID: i + 1, UserId: 1, CompanyId: "co-1", TableName: "payments", RecordId: "PAY1", Operation: OperationDelete}
		if res := h.executor.Execute(context.Background(), op); !res.Success {
			t.Fatalf("delete #%d: %+v", i+1, res)
		}
	}
	if _, err := h.payments.Get(context.Background(), scope, "PAY1"); !errors.Is(err, ErrRecordNotFound) {
		t.Fatalf("expected record to be gone, got %v", err)
	}
}

func TestExecuteUnsupported(t *testing.T) {
	h := newHarness(t)

	res := h.executor.Execute(context.Background(), &Operation{ID: 1, UserId: 1, CompanyId: "co-1",
		TableName: "invoices", RecordId: "I1", Operation: OperationCreate, Data: Record{}})
	if !errors.Is(res.Err, ErrUnsupportedEntity) {
		t.Fatalf("expected unsupported entity, got %+v", res)
	}

	res = h.executor.Execute(context.Background(), &Operation{ID: 2, UserId: 1, CompanyId: "co-1",
		TableName: "bills", RecordId: "B1", Operation: OperationType("upsert"), Data: Record{}})
	if !errors.Is(res.Err, ErrUnsupportedOperation) {
		t.Fatalf("expected unsupported operation, got %+v", res)
	}

	noPayments := NewExecutor(EntityStores{Bills: h.bills}, nil)
	res = noPayments.Execute(context.Background(), &Operation{ID: 3, UserId: 1, CompanyId: "co-1",
		TableName: "payments", RecordId: "PAY1", Operation: OperationDelete})
	if !errors.Is(res.Err, ErrUnsupportedEntity) {
		t.Fatalf("kind without a store should be unsupported, got %+v", res)
	}
}

func TestExecutorPerKindDetector(t *testing.T) {
	h := newHarness(t)
	scope := Scope{UserId: 1, CompanyId: "co-1"}
	h.bills.Seed(scope, "B1", Record{"version": 3, "updated_at": h.clock.Now()})

	versionCheck := DetectorFunc(func(server, incoming Record) bool {
		return server["version"] != incoming["version"]
	})
	exec := NewExecutor(h.stores(), nil).WithDetector(EntityBill, versionCheck)

	op := &Operation{ID: 1, UserId: 1, CompanyId: "co-1", TableName: "bills", RecordId: "B1",
		Operation: OperationUpdate, Data: Record{"version": 2}}
	if res := exec.Execute(context.Background(), op); !res.Conflict {
		t.Fatalf("expected version conflict, got %+v", res)
	}
	op.Data = Record{"version": 3}
	if res := exec.Execute(context.Background(), op); !res.Success {
		t.Fatalf("expected success with matching version, got %+v", res)
	}
}
