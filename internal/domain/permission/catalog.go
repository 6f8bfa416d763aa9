package permission

import "sort"

type Key string

type Category string

const (
	CategoryUsers     Category = "users"
	CategoryFamily    Category = "family"
	CategoryAccounts  Category = "accounts"
	CategoryRoles     Category = "roles"
	CategoryAudit     Category = "audit"
	CategoryIntegrity Category = "integrity"
)

const (
	UsersView    Key = "users.view"
	UsersCreate  Key = "users.create"
	UsersEdit    Key = "users.edit"
	UsersApprove Key = "users.approve"
	UsersManage  Key = "users.manage"

	FamilyView            Key = "family.view"
	FamilyManageMembers   Key = "family.manage_members"
	FamilyApproveMembers  Key = "family.approve_members"
	FamilyTransferPrimary Key = "family.transfer_primary"

	AccountsDelete     Key = "accounts.delete"
	AccountsHardDelete Key = "accounts.hard_delete"
	AccountsRestore    Key = "accounts.restore"

	RolesView   Key = "roles.view"
	RolesManage Key = "roles.manage"

	AuditView Key = "audit.view"

	IntegrityRun Key = "integrity.run"
)

type Capability struct {
	Key      Key
	Label    string
	Category Category
}

var catalog = []Capability{
	{Key: UsersView, Label: "View users", Category: CategoryUsers},
	{Key: UsersCreate, Label: "Create users", Category: CategoryUsers},
	{Key: UsersEdit, Label: "Edit users", Category: CategoryUsers},
	{Key: UsersApprove, Label: "Approve or reject users", Category: CategoryUsers},
	{Key: UsersManage, Label: "Manage users and role assignments", Category: CategoryUsers},

	{Key: FamilyView, Label: "View any family", Category: CategoryFamily},
	{Key: FamilyManageMembers, Label: "Manage family members", Category: CategoryFamily},
	{Key: FamilyApproveMembers, Label: "Approve or reject family members", Category: CategoryFamily},
	{Key: FamilyTransferPrimary, Label: "Transfer primary account", Category: CategoryFamily},

	{Key: AccountsDelete, Label: "Soft delete accounts", Category: CategoryAccounts},
	{Key: AccountsHardDelete, Label: "Permanently delete accounts", Category: CategoryAccounts},
	{Key: AccountsRestore, Label: "Restore deleted accounts", Category: CategoryAccounts},

	{Key: RolesView, Label: "View roles", Category: CategoryRoles},
	{Key: RolesManage, Label: "Create, edit and disable roles", Category: CategoryRoles},

	{Key: AuditView, Label: "View activity log", Category: CategoryAudit},

	{Key: IntegrityRun, Label: "Run integrity checks", Category: CategoryIntegrity},
}

var index = func() map[Key]Capability {
	result := make(map[Key]Capability, len(catalog))
	for _, capability := range catalog {
		result[capability.Key] = capability
	}
	return result
}()

// Critical capabilities must stay granted on the admin role; losing either
// would lock every administrator out of role and user management.
var critical = []Key{RolesManage, UsersManage}

func All() []Capability {
	result := make([]Capability, len(catalog))
	copy(result, catalog)
	return result
}

func Exists(key Key) bool {
	_, ok := index[key]
	return ok
}

func Critical() []Key {
	result := make([]Key, len(critical))
	copy(result, critical)
	return result
}

// DefaultGrants returns every catalog key mapped to false.
func DefaultGrants() Grants {
	grants := make(Grants, len(catalog))
	for _, capability := range catalog {
		grants[capability.Key] = false
	}
	return grants
}

func AllGranted() Grants {
	grants := make(Grants, len(catalog))
	for _, capability := range catalog {
		grants[capability.Key] = true
	}
	return grants
}

func ByCategory() map[Category][]Capability {
	result := make(map[Category][]Capability)
	for _, capability := range catalog {
		result[capability.Category] = append(result[capability.Category], capability)
	}
	return result
}

func Categories() []Category {
	seen := make(map[Category]struct{})
	result := make([]Category, 0)
	for _, capability := range catalog {
		if _, ok := seen[capability.Category]; ok {
			continue
		}
		seen[capability.Category] = struct{}{}
		result = append(result, capability.Category)
	}
	sort.Slice(result, func(i, j int) bool { return result[i] < result[j] })
	return result
}
