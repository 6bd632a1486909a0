package services

import (
	"testing"

	"dompet/internal/models"
	"dompet/internal/testutil"
)

func TestFamilyAccessPolicy(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	policy := NewFamilyAccessPolicy()

	alice := testutil.CreateTestUser(t, db)
	bob := testutil.CreateTestUser(t, db)
	carol := testutil.CreateTestUser(t, db)
	dave := testutil.CreateTestUser(t, db)
	testutil.CreateTestFamily(t, db, alice, bob)
	testutil.CreateTestFamily(t, db, carol)

	personal := testutil.CreateTestAccount(t, db, alice.ID)
	joint := testutil.CreateTestJointAccount(t, db, alice.ID, 0)

	tests := []struct {
		name    string
		entity  models.Owned
		userID  string
		allowed bool
	}{
		{name: "owner_personal", entity: personal, userID: alice.ID, allowed: true},
		{name: "family_personal", entity: personal, userID: bob.ID, allowed: false},
		{name: "owner_joint", entity: joint, userID: alice.ID, allowed: true},
		{name: "family_joint", entity: joint, userID: bob.ID, allowed: true},
		{name: "other_family_joint", entity: joint, userID: carol.ID, allowed: false},
		{name: "no_family_joint", entity: joint, userID: dave.ID, allowed: false},
		{name: "anonymous", entity: joint, userID: "", allowed: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := policy.IsAccessibleBy(db, tt.entity, tt.userID)
			testutil.AssertNoError(t, err)
			if got != tt.allowed {
				t.Errorf("IsAccessibleBy = %v, want %v", got, tt.allowed)
			}
		})
	}

	t.Run("scope_matches_point_checks", func(t *testing.T) {
		var visible []models.Account
		if err := db.Scopes(policy.Scope(bob.ID)).Find(&visible).Error; err != nil {
			t.Fatalf("scope query failed: %v", err)
		}
		if len(visible) != 1 || visible[0].ID != joint.ID {
			t.Errorf("expected only the joint account, got %d accounts", len(visible))
		}
	})
}
