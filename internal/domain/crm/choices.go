package crm

// Choice codes are single letters persisted as-is. Labels are resolved by
// the i18n catalog from LabelKey, so the domain never holds display text.

// CustomerStatus is the relationship stage of a customer
type CustomerStatus string

const (
	CustomerStatusPurchased  CustomerStatus = "C"
	CustomerStatusVIP        CustomerStatus = "V"
	CustomerStatusInterested CustomerStatus = "I"
	CustomerStatusNegative   CustomerStatus = "N"
	CustomerStatusOther      CustomerStatus = "O"
)

// CustomerStatuses lists customer statuses in display order
var CustomerStatuses = []CustomerStatus{
	CustomerStatusPurchased,
	CustomerStatusVIP,
	CustomerStatusInterested,
	CustomerStatusNegative,
	CustomerStatusOther,
}

func (s CustomerStatus) IsValid() bool {
	for _, v := range CustomerStatuses {
		if s == v {
			return true
		}
	}
	return false
}

func (s CustomerStatus) LabelKey() string {
	return "customer_status." + string(s)
}

// DealStatus is the stage of a deal
type DealStatus string

const (
	DealStatusFirstContact     DealStatus = "E"
	DealStatusDecisionMaking   DealStatus = "D"
	DealStatusHarmonization    DealStatus = "H"
	DealStatusContractSigned   DealStatus = "S"
	DealStatusAwaitingPayment  DealStatus = "P"
	DealStatusContractExecuted DealStatus = "O"
	DealStatusDead             DealStatus = "A"
)

// DealStatuses lists deal statuses in pipeline order
var DealStatuses = []DealStatus{
	DealStatusFirstContact,
	DealStatusDecisionMaking,
	DealStatusHarmonization,
	DealStatusContractSigned,
	DealStatusAwaitingPayment,
	DealStatusContractExecuted,
	DealStatusDead,
}

func (s DealStatus) IsValid() bool {
	for _, v := range DealStatuses {
		if s == v {
			return true
		}
	}
	return false
}

func (s DealStatus) LabelKey() string {
	return "deal_status." + string(s)
}

// IsClosed returns true for executed and dead deals
func (s DealStatus) IsClosed() bool {
	return s == DealStatusContractExecuted || s == DealStatusDead
}

// TodoAction is the kind of a planned action
type TodoAction string

const (
	TodoActionEmail    TodoAction = "E"
	TodoActionPhone    TodoAction = "P"
	TodoActionMeeting  TodoAction = "L"
	TodoActionPostMail TodoAction = "S"
	TodoActionOther    TodoAction = "O"
)

// TodoActions lists todo actions in display order
var TodoActions = []TodoAction{
	TodoActionEmail,
	TodoActionPhone,
	TodoActionMeeting,
	TodoActionPostMail,
	TodoActionOther,
}

func (a TodoAction) IsValid() bool {
	for _, v := range TodoActions {
		if a == v {
			return true
		}
	}
	return false
}

func (a TodoAction) LabelKey() string {
	return "todo_action." + string(a)
}

// SalesRole is the position of a sales person in the sales team
type SalesRole string

const (
	SalesRoleManager       SalesRole = "M"
	SalesRoleHeadOfSales   SalesRole = "H"
	SalesRoleDirector      SalesRole = "D"
	SalesRoleAdministrator SalesRole = "A"
)

// SalesRoles lists roles from junior to senior
var SalesRoles = []SalesRole{
	SalesRoleManager,
	SalesRoleHeadOfSales,
	SalesRoleDirector,
	SalesRoleAdministrator,
}

func (r SalesRole) IsValid() bool {
	for _, v := range SalesRoles {
		if r == v {
			return true
		}
	}
	return false
}

func (r SalesRole) LabelKey() string {
	return "sales_role." + string(r)
}
