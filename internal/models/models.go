package models

// All returns every persisted model, in dependency order, for AutoMigrate.
func All() []any {
	return []any{
		&User{},
		&Account{},
		&Category{},
		&Budget{},
		&Transaction{},
		&Project{},
		&ProjectItem{},
		&ProjectPayment{},
		&ItemChecklist{},
		&LedgerEvent{},
		&AuditLog{},
	}
}
