package family

import (
	"context"
	"errors"
	"strings"
	"testing"

	"family-registry-go/internal/apperr"
	"family-registry-go/internal/domain/account"
	"family-registry-go/internal/domain/audit"
	"family-registry-go/internal/domain/contact"
	"family-registry-go/internal/domain/permission"
	"family-registry-go/internal/domain/role"
	"family-registry-go/pkg/logger"
	"gorm.io/gorm"
)

type fakeFamilyRepo struct {
	accounts map[string]*account.Account
	members  map[string]*MemberRecord
	order    []string
}

func newFakeFamilyRepo() *fakeFamilyRepo {
	return &fakeFamilyRepo{
		accounts: make(map[string]*account.Account),
		members:  make(map[string]*MemberRecord),
	}
}

func (r *fakeFamilyRepo) InFamily(ctx context.Context, familyID string, fn func(Repository) error) error {
	return fn(r)
}

func (r *fakeFamilyRepo) GetAccount(ctx context.Context, id string) (*account.Account, error) {
	found, ok := r.accounts[id]
	if !ok || found.IsDeleted() {
		return nil, account.ErrAccountNotFound
	}
	copied := *found
	return &copied, nil
}

func (r *fakeFamilyRepo) findAccount(match func(*account.Account) bool) (*account.Account, error) {
	for _, candidate := range r.accounts {
		if candidate.IsDeleted() || candidate.Status == account.StatusRejected {
			continue
		}
		if match(candidate) {
			copied := *candidate
			return &copied, nil
		}
	}
	return nil, account.ErrAccountNotFound
}

func (r *fakeFamilyRepo) FindAccountByEmail(ctx context.Context, email string) (*account.Account, error) {
	return r.findAccount(func(a *account.Account) bool { return a.Email != nil && *a.Email == email })
}

func (r *fakeFamilyRepo) FindAccountByMobile(ctx context.Context, mobile string) (*account.Account, error) {
	return r.findAccount(func(a *account.Account) bool { return a.Mobile != nil && *a.Mobile == mobile })
}

func (r *fakeFamilyRepo) FamilyAccounts(ctx context.Context, familyID string) ([]account.Account, error) {
	result := make([]account.Account, 0)
	for _, candidate := range r.accounts {
		if candidate.FamilyID == familyID && !candidate.IsDeleted() {
			result = append(result, *candidate)
		}
	}
	return result, nil
}

func (r *fakeFamilyRepo) CreateAccount(ctx context.Context, acc *account.Account) error {
	copied := *acc
	r.accounts[acc.ID] = &copied
	return nil
}

func (r *fakeFamilyRepo) SetAccountLink(ctx context.Context, accountID string, memberID *string) error {
	r.accounts[accountID].LinkedMemberRecordID = memberID
	return nil
}

func (r *fakeFamilyRepo) SetAccountStatus(ctx context.Context, accountID string, status account.Status) error {
	r.accounts[accountID].Status = status
	return nil
}

func (r *fakeFamilyRepo) SetMemberCount(ctx context.Context, accountID string, count int) error {
	r.accounts[accountID].MemberCount = count
	return nil
}

func (r *fakeFamilyRepo) GetMember(ctx context.Context, id string) (*MemberRecord, error) {
	found, ok := r.members[id]
	if !ok || found.DeletedAt.Valid {
		return nil, ErrMemberNotFound
	}
	copied := *found
	return &copied, nil
}

func (r *fakeFamilyRepo) list(match func(*MemberRecord) bool) []MemberRecord {
	result := make([]MemberRecord, 0)
	for _, id := range r.order {
		member := r.members[id]
		if member.DeletedAt.Valid || !match(member) {
			continue
		}
		result = append(result, *member)
	}
	return result
}

func (r *fakeFamilyRepo) ListByOwner(ctx context.Context, ownerID string) ([]MemberRecord, error) {
	return r.list(func(m *MemberRecord) bool { return m.OwnerAccountID == ownerID }), nil
}

func (r *fakeFamilyRepo) ListByFamily(ctx context.Context, familyID string) ([]MemberRecord, error) {
	return r.list(func(m *MemberRecord) bool { return m.FamilyID == familyID }), nil
}

func (r *fakeFamilyRepo) CountActiveInFamily(ctx context.Context, familyID string) (int64, error) {
	return int64(len(r.list(func(m *MemberRecord) bool { return m.FamilyID == familyID && m.IsActive() }))), nil
}

func (r *fakeFamilyRepo) CountActiveByOwner(ctx context.Context, ownerID string) (int64, error) {
	return int64(len(r.list(func(m *MemberRecord) bool { return m.OwnerAccountID == ownerID && m.IsActive() }))), nil
}

func (r *fakeFamilyRepo) CreateMember(ctx context.Context, member *MemberRecord) error {
	copied := *member
	r.members[member.ID] = &copied
	r.order = append(r.order, member.ID)
	return nil
}

func (r *fakeFamilyRepo) SaveMember(ctx context.Context, member *MemberRecord) error {
	copied := *member
	r.members[member.ID] = &copied
	return nil
}

func (r *fakeFamilyRepo) DeleteMember(ctx context.Context, id string) error {
	r.members[id].DeletedAt = gorm.DeletedAt{Valid: true}
	return nil
}

type fakeRoles struct{}

func (fakeRoles) GetRoleByKey(ctx context.Context, key string) (*role.Role, error) {
	return &role.Role{ID: "role-" + key, Key: key, IsActive: true}, nil
}

type fakeGuard struct {
	grants map[string][]permission.Key
}

func (g fakeGuard) Can(ctx context.Context, accountID string, key permission.Key) (bool, error) {
	for _, granted := range g.grants[accountID] {
		if granted == key {
			return true, nil
		}
	}
	return false, nil
}

func (g fakeGuard) Authorize(ctx context.Context, accountID string, key permission.Key) error {
	if ok, _ := g.Can(ctx, accountID, key); !ok {
		return apperr.New(apperr.KindForbidden, "permission_denied", "missing "+string(key))
	}
	return nil
}

type plainHasher struct{}

func (plainHasher) Hash(password string) (string, error) { return "hashed:" + password, nil }

func (plainHasher) Compare(hash, password string) error {
	if hash != "hashed:"+password {
		return errors.New("mismatch")
	}
	return nil
}

const (
	primaryID = "acc-primary"
	spouseID  = "acc-spouse"
	adminID   = "acc-admin"
	outsideID = "acc-outside"
	familyID  = "fam-1"
)

func newTestService(t *testing.T) (*Service, *fakeFamilyRepo) {
	t.Helper()
	repo := newFakeFamilyRepo()
	repo.accounts[primaryID] = &account.Account{ID: primaryID, Name: "Meera", FamilyID: familyID, IsPrimary: true, Status: account.StatusApproved}
	repo.accounts[spouseID] = &account.Account{ID: spouseID, Name: "Arjun", FamilyID: familyID, Status: account.StatusApproved}
	repo.accounts[adminID] = &account.Account{ID: adminID, Name: "Admin", FamilyID: "fam-admin", IsPrimary: true, Status: account.StatusApproved}
	outsideEmail := "outsider@example.com"
	repo.accounts[outsideID] = &account.Account{ID: outsideID, Name: "Outsider", Email: &outsideEmail, FamilyID: "fam-2", IsPrimary: true, Status: account.StatusApproved}

	guard := fakeGuard{grants: map[string][]permission.Key{
		adminID: {permission.FamilyManageMembers, permission.FamilyApproveMembers, permission.FamilyView},
	}}
	svc := NewService(repo, Deps{
		Roles:    fakeRoles{},
		Guard:    guard,
		Hasher:   plainHasher{},
		Contacts: contact.NewValidator(),
		Audit:    audit.Nop{},
		Log:      logger.Discard(),
	}, Settings{})
	return svc, repo
}

func addPerson(t *testing.T, svc *Service, actorID, ownerID, name string) *AddMemberResult {
	t.Helper()
	result, err := svc.AddMember(context.Background(), AddMemberInput{
		ActorID:        actorID,
		OwnerAccountID: ownerID,
		Person:         Person{Name: name, Relationship: "son"},
	})
	if err != nil {
		t.Fatalf("add %s: %v", name, err)
	}
	return result
}

func TestAddMemberThresholdLaw(t *testing.T) {
	svc, repo := newTestService(t)

	for i := 1; i <= 5; i++ {
		result := addPerson(t, svc, primaryID, primaryID, "child")
		if result.Member.ApprovalStatus != ApprovalApproved || result.Member.NeedsApproval {
			t.Fatalf("expected member %d approved, got %s", i, result.Member.ApprovalStatus)
		}
	}

	sixth := addPerson(t, svc, primaryID, primaryID, "sixth")
	if sixth.Member.ApprovalStatus != ApprovalPending || !sixth.Member.NeedsApproval {
		t.Fatalf("expected sixth member pending, got %+v", sixth.Member)
	}
	if repo.accounts[primaryID].MemberCount != 6 {
		t.Fatalf("expected member count 6, got %d", repo.accounts[primaryID].MemberCount)
	}
}

func TestAddMemberThresholdCountsWholeFamily(t *testing.T) {
	svc, _ := newTestService(t)

	for i := 0; i < 3; i++ {
		addPerson(t, svc, primaryID, primaryID, "child")
	}
	for i := 0; i < 2; i++ {
		addPerson(t, svc, adminID, spouseID, "nephew")
	}

	result := addPerson(t, svc, primaryID, spouseID, "late")
	if result.Member.ApprovalStatus != ApprovalPending {
		t.Fatalf("expected family-wide count to gate the sixth record, got %s", result.Member.ApprovalStatus)
	}
}

func TestRejectSixthMemberDetachesIt(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		addPerson(t, svc, primaryID, primaryID, "child")
	}
	sixth := addPerson(t, svc, primaryID, primaryID, "sixth")

	rejected, err := svc.RejectMember(ctx, adminID, sixth.Member.ID, "duplicate entry")
	if err != nil {
		t.Fatalf("expected reject to succeed, got %v", err)
	}
	if rejected.ApprovalStatus != ApprovalRejected || rejected.NeedsApproval {
		t.Fatalf("unexpected rejected member %+v", rejected)
	}
	if rejected.ReviewedBy == nil || *rejected.ReviewedBy != adminID {
		t.Fatalf("expected reviewer recorded")
	}

	active, err := svc.ListMembers(ctx, primaryID, primaryID)
	if err != nil {
		t.Fatalf("list members: %v", err)
	}
	for _, member := range active {
		if member.ID == sixth.Member.ID {
			t.Fatalf("expected rejected member detached from active list")
		}
	}
	if len(active) != 5 || repo.accounts[primaryID].MemberCount != 5 {
		t.Fatalf("expected 5 active members, got %d (count %d)", len(active), repo.accounts[primaryID].MemberCount)
	}

	if _, err := svc.RejectMember(ctx, adminID, sixth.Member.ID, ""); !errors.Is(err, ErrAlreadyReviewed) {
		t.Fatalf("expected ErrAlreadyReviewed, got %v", err)
	}

	next := addPerson(t, svc, primaryID, primaryID, "replacement")
	if next.Member.ApprovalStatus != ApprovalPending {
		t.Fatalf("expected family at limit to stay gated, got %s", next.Member.ApprovalStatus)
	}
}

func TestReviewRequiresCapability(t *testing.T) {
	svc, _ := newTestService(t)

	added := addPerson(t, svc, primaryID, primaryID, "child")
	_, err := svc.ApproveMember(context.Background(), primaryID, added.Member.ID, "")
	if apperr.KindOf(err) != apperr.KindForbidden {
		t.Fatalf("expected forbidden for primary without approve capability, got %v", err)
	}
}

func TestAddMemberAuthorization(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.AddMember(ctx, AddMemberInput{ActorID: spouseID, OwnerAccountID: primaryID, Person: Person{Name: "Kid", Relationship: "son"}})
	if !errors.Is(err, ErrNotFamilyManager) {
		t.Fatalf("expected ErrNotFamilyManager for non-primary actor, got %v", err)
	}

	_, err = svc.AddMember(ctx, AddMemberInput{ActorID: outsideID, OwnerAccountID: primaryID, Person: Person{Name: "Kid", Relationship: "son"}})
	if !errors.Is(err, ErrNotFamilyManager) {
		t.Fatalf("expected ErrNotFamilyManager for primary of another family, got %v", err)
	}

	if _, err := svc.AddMember(ctx, AddMemberInput{ActorID: adminID, OwnerAccountID: primaryID, Person: Person{Name: "Kid", Relationship: "son"}}); err != nil {
		t.Fatalf("expected manager capability to allow add, got %v", err)
	}

	_, err = svc.AddMember(ctx, AddMemberInput{ActorID: primaryID, OwnerAccountID: "missing", Person: Person{Name: "Kid", Relationship: "son"}})
	if !errors.Is(err, ErrOwnerNotFound) {
		t.Fatalf("expected ErrOwnerNotFound, got %v", err)
	}
}

func TestAddMemberValidatesInput(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.AddMember(ctx, AddMemberInput{ActorID: primaryID, OwnerAccountID: primaryID, Person: Person{Name: "Kid", Relationship: "pet"}})
	if !errors.Is(err, ErrInvalidRelationship) {
		t.Fatalf("expected ErrInvalidRelationship, got %v", err)
	}

	_, err = svc.AddMember(ctx, AddMemberInput{ActorID: primaryID, OwnerAccountID: primaryID, Person: Person{Name: "Kid", Relationship: "Son-in-law", Email: "broken"}})
	if !errors.Is(err, contact.ErrInvalidEmail) {
		t.Fatalf("expected ErrInvalidEmail, got %v", err)
	}

	result, err := svc.AddMember(ctx, AddMemberInput{ActorID: primaryID, OwnerAccountID: primaryID, Person: Person{Name: "Kid", Relationship: "Son in law"}})
	if err != nil {
		t.Fatalf("expected relationship normalization, got %v", err)
	}
	if result.Member.Relationship != "son_in_law" {
		t.Fatalf("expected son_in_law, got %q", result.Member.Relationship)
	}
}

func TestAddMemberProvisionsLinkedLogin(t *testing.T) {
	svc, repo := newTestService(t)

	result, err := svc.AddMember(context.Background(), AddMemberInput{
		ActorID:        primaryID,
		OwnerAccountID: primaryID,
		Person:         Person{Name: "Dev", Relationship: "son", Mobile: "98450-12345"},
		CreateLogin:    true,
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !result.AccountCreated || result.Account == nil {
		t.Fatalf("expected account to be created")
	}

	created := repo.accounts[result.Account.ID]
	if created.IsPrimary || created.FamilyID != familyID {
		t.Fatalf("expected non-primary account in the owner's family, got %+v", created)
	}
	if created.Email == nil || *created.Email != "9845012345@"+PlaceholderEmailDomain {
		t.Fatalf("expected placeholder email, got %v", created.Email)
	}
	if created.PasswordHash != "hashed:9845012345" {
		t.Fatalf("expected mobile digits as default password, got %q", created.PasswordHash)
	}
	if created.Status != account.StatusApproved {
		t.Fatalf("expected account status to mirror approved member, got %s", created.Status)
	}

	member := repo.members[result.Member.ID]
	if member.LinkedAccountID == nil || *member.LinkedAccountID != created.ID {
		t.Fatalf("expected member linked to account")
	}
	if created.LinkedMemberRecordID == nil || *created.LinkedMemberRecordID != member.ID {
		t.Fatalf("expected account linked back to member")
	}
}

func TestAddMemberLinksExistingAccount(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()
	email := "arjun@example.com"
	repo.accounts[spouseID].Email = &email

	result, err := svc.AddMember(ctx, AddMemberInput{
		ActorID:        primaryID,
		OwnerAccountID: primaryID,
		Person:         Person{Name: "Arjun", Relationship: "spouse", Email: "Arjun@Example.com"},
		CreateLogin:    true,
	})
	if err != nil {
		t.Fatalf("expected link to succeed, got %v", err)
	}
	if result.AccountCreated || result.Account.ID != spouseID {
		t.Fatalf("expected existing account linked, got %+v", result)
	}
	if link := repo.accounts[spouseID].LinkedMemberRecordID; link == nil || *link != result.Member.ID {
		t.Fatalf("expected symmetric link on existing account")
	}

	_, err = svc.AddMember(ctx, AddMemberInput{
		ActorID:        primaryID,
		OwnerAccountID: primaryID,
		Person:         Person{Name: "Arjun again", Relationship: "spouse", Email: email},
		CreateLogin:    true,
	})
	if !errors.Is(err, ErrAccountAlreadyLinked) {
		t.Fatalf("expected ErrAccountAlreadyLinked, got %v", err)
	}

	_, err = svc.AddMember(ctx, AddMemberInput{
		ActorID:        primaryID,
		OwnerAccountID: primaryID,
		Person:         Person{Name: "Stranger", Relationship: "cousin", Email: "outsider@example.com"},
		CreateLogin:    true,
	})
	if !errors.Is(err, ErrContactInOtherFamily) {
		t.Fatalf("expected ErrContactInOtherFamily, got %v", err)
	}
	if apperr.KindOf(err) != apperr.KindConflict {
		t.Fatalf("expected conflict kind, got %s", apperr.KindOf(err))
	}
}

func TestAddMemberRejectsContactsOfDifferentAccounts(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()
	email := "arjun@example.com"
	mobile := "9845012345"
	repo.accounts[spouseID].Email = &email
	repo.accounts["acc-cousin"] = &account.Account{ID: "acc-cousin", Name: "Kavya", Mobile: &mobile, FamilyID: familyID, Status: account.StatusApproved}

	_, err := svc.AddMember(ctx, AddMemberInput{
		ActorID:        primaryID,
		OwnerAccountID: primaryID,
		Person:         Person{Name: "Arjun", Relationship: "spouse", Email: email, Mobile: "98450 12345"},
		CreateLogin:    true,
	})
	if !errors.Is(err, ErrContactMismatch) {
		t.Fatalf("expected ErrContactMismatch, got %v", err)
	}
	if apperr.KindOf(err) != apperr.KindConflict {
		t.Fatalf("expected conflict kind, got %s", apperr.KindOf(err))
	}
	if repo.accounts[spouseID].LinkedMemberRecordID != nil || repo.accounts["acc-cousin"].LinkedMemberRecordID != nil {
		t.Fatalf("expected neither account linked")
	}

	repo.accounts[spouseID].Mobile = &mobile
	repo.accounts["acc-cousin"].Mobile = nil
	result, err := svc.AddMember(ctx, AddMemberInput{
		ActorID:        primaryID,
		OwnerAccountID: primaryID,
		Person:         Person{Name: "Arjun", Relationship: "spouse", Email: email, Mobile: mobile},
		CreateLogin:    true,
	})
	if err != nil {
		t.Fatalf("expected link when both contacts match one account, got %v", err)
	}
	if result.AccountCreated || result.Account.ID != spouseID {
		t.Fatalf("expected spouse linked, got %+v", result)
	}
}

func TestApproveMemberApprovesPendingLinkedAccount(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		addPerson(t, svc, primaryID, primaryID, "child")
	}
	result, err := svc.AddMember(ctx, AddMemberInput{
		ActorID:        primaryID,
		OwnerAccountID: primaryID,
		Person:         Person{Name: "Late", Relationship: "daughter", Email: "late@example.com"},
		CreateLogin:    true,
	})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if repo.accounts[result.Account.ID].Status != account.StatusPending {
		t.Fatalf("expected pending account for gated member")
	}
	if !strings.HasPrefix(*repo.accounts[result.Account.ID].Mobile, "9") {
		t.Fatalf("expected placeholder mobile")
	}

	if _, err := svc.ApproveMember(ctx, adminID, result.Member.ID, "ok"); err != nil {
		t.Fatalf("expected approve to succeed, got %v", err)
	}
	if repo.accounts[result.Account.ID].Status != account.StatusApproved {
		t.Fatalf("expected linked account approved")
	}
}

func TestRejectLeavesLinkedAccountUntouched(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	result, err := svc.AddMember(ctx, AddMemberInput{
		ActorID:        primaryID,
		OwnerAccountID: primaryID,
		Person:         Person{Name: "Dev", Relationship: "son", Email: "dev@example.com"},
		CreateLogin:    true,
	})
	if err != nil {
		t.Fatalf("add: %v", err)
	}

	if _, err := svc.RejectMember(ctx, adminID, result.Member.ID, ""); err != nil {
		t.Fatalf("reject: %v", err)
	}
	linked := repo.accounts[result.Account.ID]
	if linked.IsDeleted() || linked.Status != account.StatusApproved {
		t.Fatalf("expected linked account untouched, got %+v", linked)
	}
}

func TestUpdateMemberOwnership(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	added := addPerson(t, svc, primaryID, primaryID, "child")

	name := "Renamed"
	if _, err := svc.UpdateMember(ctx, spouseID, added.Member.ID, UpdateMemberInput{Name: &name}); !errors.Is(err, ErrNotOwner) {
		t.Fatalf("expected ErrNotOwner, got %v", err)
	}

	updated, err := svc.UpdateMember(ctx, primaryID, added.Member.ID, UpdateMemberInput{Name: &name})
	if err != nil {
		t.Fatalf("expected owner update to succeed, got %v", err)
	}
	if updated.Name != "Renamed" {
		t.Fatalf("expected name updated, got %q", updated.Name)
	}

	relationship := "daughter"
	if _, err := svc.AdminUpdateMember(ctx, spouseID, added.Member.ID, UpdateMemberInput{Relationship: &relationship}); apperr.KindOf(err) != apperr.KindForbidden {
		t.Fatalf("expected forbidden admin update, got %v", err)
	}
	updated, err = svc.AdminUpdateMember(ctx, adminID, added.Member.ID, UpdateMemberInput{Relationship: &relationship})
	if err != nil {
		t.Fatalf("expected admin update to succeed, got %v", err)
	}
	if updated.Relationship != "daughter" {
		t.Fatalf("expected relationship updated, got %q", updated.Relationship)
	}
}

func TestDeleteMemberClearsLink(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	result, err := svc.AddMember(ctx, AddMemberInput{
		ActorID:        primaryID,
		OwnerAccountID: primaryID,
		Person:         Person{Name: "Dev", Relationship: "son", Email: "dev@example.com"},
		CreateLogin:    true,
	})
	if err != nil {
		t.Fatalf("add: %v", err)
	}

	if err := svc.DeleteMember(ctx, spouseID, result.Member.ID); !errors.Is(err, ErrNotOwner) {
		t.Fatalf("expected ErrNotOwner, got %v", err)
	}
	if err := svc.DeleteMember(ctx, primaryID, result.Member.ID); err != nil {
		t.Fatalf("expected delete to succeed, got %v", err)
	}
	if repo.accounts[result.Account.ID].LinkedMemberRecordID != nil {
		t.Fatalf("expected account link cleared")
	}
	if repo.accounts[primaryID].MemberCount != 0 {
		t.Fatalf("expected member count 0, got %d", repo.accounts[primaryID].MemberCount)
	}
}

func TestFamilyOverview(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	addPerson(t, svc, primaryID, primaryID, "child")
	addPerson(t, svc, primaryID, primaryID, "child two")

	overview, err := svc.FamilyOverview(ctx, spouseID, familyID)
	if err != nil {
		t.Fatalf("expected same-family view, got %v", err)
	}
	if overview.Primary == nil || overview.Primary.ID != primaryID {
		t.Fatalf("expected primary %s, got %+v", primaryID, overview.Primary)
	}
	if overview.ActiveMemberCount != 2 || overview.FreeSlotsRemaining != 3 {
		t.Fatalf("unexpected counts %d/%d", overview.ActiveMemberCount, overview.FreeSlotsRemaining)
	}

	if _, err := svc.FamilyOverview(ctx, outsideID, familyID); !errors.Is(err, ErrNotFamilyViewer) {
		t.Fatalf("expected ErrNotFamilyViewer, got %v", err)
	}
	if _, err := svc.FamilyOverview(ctx, adminID, familyID); err != nil {
		t.Fatalf("expected family.view holder to see family, got %v", err)
	}
}

func TestPlaceholdersAndDefaultPassword(t *testing.T) {
	if PlaceholderMobile("a@example.com") != PlaceholderMobile("A@Example.com") {
		t.Fatalf("expected placeholder mobile to ignore case")
	}
	mobile := PlaceholderMobile("a@example.com")
	if len(mobile) != 11 || mobile[0] != '9' {
		t.Fatalf("expected 11 digit number starting with 9, got %q", mobile)
	}
	if PlaceholderMobile("a@example.com") == PlaceholderMobile("b@example.com") {
		t.Fatalf("expected different emails to produce different numbers")
	}
	if got := PlaceholderEmail("+91 98450 12345"); got != "919845012345@"+PlaceholderEmailDomain {
		t.Fatalf("unexpected placeholder email %q", got)
	}

	cases := []struct {
		explicit, email, mobile, expected string
	}{
		{"chosen1", "x@example.com", "9845012345", "chosen1"},
		{"", "x@example.com", "+9845012345", "9845012345"},
		{"", "priya@example.com", "", "priya"},
		{"", "", "", DefaultMemberPassword},
	}
	for _, tc := range cases {
		if got := DefaultPassword(tc.explicit, tc.email, tc.mobile); got != tc.expected {
			t.Fatalf("DefaultPassword(%q, %q, %q): expected %q, got %q", tc.explicit, tc.email, tc.mobile, tc.expected, got)
		}
	}
}
