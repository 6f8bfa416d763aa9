package account

import (
	"context"
	"testing"
	"time"

	"family-registry-go/internal/db/dbtest"
	accountdomain "family-registry-go/internal/domain/account"
	familydomain "family-registry-go/internal/domain/family"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func strPtr(value string) *string { return &value }

func newAccount(familyID, email string) *accountdomain.Account {
	acc := &accountdomain.Account{
		ID:           uuid.NewString(),
		Name:         "Account " + email,
		PasswordHash: "hash",
		FamilyID:     familyID,
		RoleID:       uuid.NewString(),
		Status:       accountdomain.StatusApproved,
	}
	if email != "" {
		acc.Email = strPtr(email)
	}
	return acc
}

func newMember(owner *accountdomain.Account) *familydomain.MemberRecord {
	return &familydomain.MemberRecord{
		ID:             uuid.NewString(),
		OwnerAccountID: owner.ID,
		FamilyID:       owner.FamilyID,
		Name:           "Member",
		Relationship:   "son",
		ApprovalStatus: familydomain.ApprovalApproved,
		AddedBy:        owner.ID,
	}
}

func setup(t *testing.T) (*PostgresRepository, *gorm.DB) {
	t.Helper()
	gormDB := dbtest.NewSQLite(t)
	return NewPostgres(gormDB, dbtest.NewTxRunner()), gormDB
}

func TestCreateRejectsDuplicateLiveContact(t *testing.T) {
	repo, _ := setup(t)
	ctx := context.Background()
	familyID := uuid.NewString()

	require.NoError(t, repo.Create(ctx, newAccount(familyID, "ana@example.com")))
	err := repo.Create(ctx, newAccount(familyID, "ana@example.com"))
	assert.ErrorIs(t, err, accountdomain.ErrContactTaken)
}

func TestRejectedAccountReleasesContact(t *testing.T) {
	repo, _ := setup(t)
	ctx := context.Background()
	familyID := uuid.NewString()

	rejected := newAccount(familyID, "ana@example.com")
	rejected.Status = accountdomain.StatusRejected
	require.NoError(t, repo.Create(ctx, rejected))
	require.NoError(t, repo.Create(ctx, newAccount(familyID, "ana@example.com")))

	found, err := repo.FindByEmail(ctx, "ana@example.com")
	require.NoError(t, err)
	assert.NotEqual(t, rejected.ID, found.ID)
}

func TestSaveKeepsTransferHistory(t *testing.T) {
	repo, _ := setup(t)
	ctx := context.Background()

	acc := newAccount(uuid.NewString(), "ana@example.com")
	require.NoError(t, repo.Create(ctx, acc))

	at := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	acc.IsPrimary = true
	acc.TransferHistory = append(acc.TransferHistory, accountdomain.TransferRecord{
		FromAccountID: "from", ToAccountID: acc.ID, TransferredAt: at, Reason: "moved abroad",
	})
	require.NoError(t, repo.Save(ctx, acc))

	loaded, err := repo.GetByID(ctx, acc.ID)
	require.NoError(t, err)
	assert.True(t, loaded.IsPrimary)
	require.Len(t, loaded.TransferHistory, 1)
	assert.Equal(t, "moved abroad", loaded.TransferHistory[0].Reason)
	assert.True(t, at.Equal(loaded.TransferHistory[0].TransferredAt))
}

func TestSoftDeleteAndRestore(t *testing.T) {
	repo, _ := setup(t)
	ctx := context.Background()

	acc := newAccount(uuid.NewString(), "ana@example.com")
	acc.IsPrimary = true
	require.NoError(t, repo.Create(ctx, acc))
	require.NoError(t, repo.SoftDelete(ctx, acc.ID, time.Now()))

	_, err := repo.GetByID(ctx, acc.ID)
	assert.ErrorIs(t, err, accountdomain.ErrAccountNotFound)

	deleted, err := repo.GetByIDUnscoped(ctx, acc.ID)
	require.NoError(t, err)
	require.NotNil(t, deleted.DeleteType)
	assert.Equal(t, accountdomain.DeleteSoft, *deleted.DeleteType)

	require.NoError(t, repo.Restore(ctx, acc.ID, false))
	restored, err := repo.GetByID(ctx, acc.ID)
	require.NoError(t, err)
	assert.Nil(t, restored.DeleteType)
	assert.False(t, restored.IsPrimary)
}

func TestListFamilyWithDeletedSkipsTombstones(t *testing.T) {
	repo, _ := setup(t)
	ctx := context.Background()
	familyID := uuid.NewString()

	live := newAccount(familyID, "live@example.com")
	soft := newAccount(familyID, "soft@example.com")
	hard := newAccount(familyID, "hard@example.com")
	other := newAccount(uuid.NewString(), "other@example.com")
	for _, acc := range []*accountdomain.Account{live, soft, hard, other} {
		require.NoError(t, repo.Create(ctx, acc))
	}
	require.NoError(t, repo.SoftDelete(ctx, soft.ID, time.Now()))
	require.NoError(t, repo.Tombstone(ctx, hard.ID, time.Now()))

	scoped, err := repo.ListFamily(ctx, familyID)
	require.NoError(t, err)
	assert.Len(t, scoped, 1)

	accounts, err := repo.ListFamilyWithDeleted(ctx, familyID)
	require.NoError(t, err)
	ids := make([]string, 0, len(accounts))
	for _, acc := range accounts {
		ids = append(ids, acc.ID)
	}
	assert.ElementsMatch(t, []string{live.ID, soft.ID}, ids)
}

func TestTombstoneScrubsIdentity(t *testing.T) {
	repo, _ := setup(t)
	ctx := context.Background()

	acc := newAccount(uuid.NewString(), "ana@example.com")
	acc.Mobile = strPtr("5551234")
	require.NoError(t, repo.Create(ctx, acc))
	require.NoError(t, repo.Tombstone(ctx, acc.ID, time.Now()))

	tomb, err := repo.GetByIDUnscoped(ctx, acc.ID)
	require.NoError(t, err)
	assert.True(t, tomb.IsHardDeleted())
	assert.Equal(t, tombstoneName, tomb.Name)
	assert.Nil(t, tomb.Email)
	assert.Nil(t, tomb.Mobile)

	require.NoError(t, repo.Create(ctx, newAccount(uuid.NewString(), "ana@example.com")))
}

func TestDeleteOwnedMembersClearsLinks(t *testing.T) {
	repo, gormDB := setup(t)
	ctx := context.Background()
	familyID := uuid.NewString()

	owner := newAccount(familyID, "owner@example.com")
	linked := newAccount(familyID, "linked@example.com")
	require.NoError(t, repo.Create(ctx, owner))
	require.NoError(t, repo.Create(ctx, linked))

	member := newMember(owner)
	member.LinkedAccountID = &linked.ID
	require.NoError(t, gormDB.Create(member).Error)
	other := newMember(owner)
	require.NoError(t, gormDB.Create(other).Error)
	require.NoError(t, gormDB.Delete(other).Error)

	linked.LinkedMemberRecordID = &member.ID
	require.NoError(t, repo.Save(ctx, linked))

	count, err := repo.CountOwnedMembers(ctx, []string{owner.ID})
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)

	deleted, err := repo.DeleteOwnedMembers(ctx, []string{owner.ID})
	require.NoError(t, err)
	assert.EqualValues(t, 2, deleted)

	reloaded, err := repo.GetByID(ctx, linked.ID)
	require.NoError(t, err)
	assert.Nil(t, reloaded.LinkedMemberRecordID)
}

func TestClearMemberLinksTo(t *testing.T) {
	repo, gormDB := setup(t)
	ctx := context.Background()
	familyID := uuid.NewString()

	owner := newAccount(familyID, "owner@example.com")
	require.NoError(t, repo.Create(ctx, owner))
	member := newMember(owner)
	member.LinkedAccountID = strPtr(uuid.NewString())
	require.NoError(t, gormDB.Create(member).Error)

	require.NoError(t, repo.ClearMemberLinksTo(ctx, []string{*member.LinkedAccountID}))

	var reloaded familydomain.MemberRecord
	require.NoError(t, gormDB.First(&reloaded, "id = ?", member.ID).Error)
	assert.Nil(t, reloaded.LinkedAccountID)
}

func TestExternalReferences(t *testing.T) {
	repo, gormDB := setup(t)
	ctx := context.Background()

	require.NoError(t, gormDB.Exec(`CREATE TABLE donations (id INTEGER PRIMARY KEY, donor_account_id TEXT)`).Error)
	accountID := uuid.NewString()
	require.NoError(t, gormDB.Exec(`INSERT INTO donations (donor_account_id) VALUES (?), (?), (?)`, accountID, accountID, "someone-else").Error)

	ref, err := accountdomain.ParseExternalRef("donations.donor_account_id")
	require.NoError(t, err)

	count, err := repo.CountExternal(ctx, ref, []string{accountID})
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)

	require.NoError(t, repo.ClearExternal(ctx, ref, []string{accountID}))
	count, err = repo.CountExternal(ctx, ref, []string{accountID})
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestInFamilyRollsBack(t *testing.T) {
	repo, _ := setup(t)
	ctx := context.Background()
	acc := newAccount(uuid.NewString(), "ana@example.com")

	err := repo.InFamily(ctx, acc.FamilyID, func(tx accountdomain.Repository) error {
		if err := tx.Create(ctx, acc); err != nil {
			return err
		}
		return tx.Create(ctx, newAccount(acc.FamilyID, "ana@example.com"))
	})
	require.ErrorIs(t, err, accountdomain.ErrContactTaken)

	_, err = repo.GetByID(ctx, acc.ID)
	assert.ErrorIs(t, err, accountdomain.ErrAccountNotFound)
}
