package domain

import (
	"fmt"
	"strings"
)

// StatusKey identifies one lifecycle state of a damage ticket. Each key
// encodes the authoring role in its prefix and an action suffix; the registry
// below holds the associated metadata.
type StatusKey string

// StatusAction is the role-independent part of a stakeholder status key.
type StatusAction string

const (
	ActionCreateDamage         StatusAction = "CREATE_DAMAGE"
	ActionSendToCompanyWith    StatusAction = "SEND_TO_COMPANY_WITH_OFFER"
	ActionSendToCompanyWithout StatusAction = "SEND_TO_COMPANY_WITHOUT_OFFER"
	ActionAcceptsTheOffer      StatusAction = "ACCEPTS_THE_OFFER"
	ActionRejectsTheOffer      StatusAction = "REJECTS_THE_OFFER"
	ActionRequestsNewOffer     StatusAction = "REQUESTS_NEW_OFFER"
	ActionAcceptsTheDate       StatusAction = "ACCEPTS_THE_DATE"
	ActionRejectsTheDate       StatusAction = "REJECTS_THE_DATE"
	ActionCloseTheDamage       StatusAction = "CLOSE_THE_DAMAGE"
)

// stakeholderActions lists every per-role action in registry order.
var stakeholderActions = []StatusAction{
	ActionCreateDamage,
	ActionSendToCompanyWith,
	ActionSendToCompanyWithout,
	ActionAcceptsTheOffer,
	ActionRejectsTheOffer,
	ActionRequestsNewOffer,
	ActionAcceptsTheDate,
	ActionRejectsTheDate,
	ActionCloseTheDamage,
}

// Company-authored and shared statuses.
const (
	StatusCompanyRejectTheDamage StatusKey = "COMPANY_REJECT_THE_DAMAGE"
	StatusDefectRaised           StatusKey = "DEFECT_RAISED"
	StatusRepairConfirmed        StatusKey = "REPAIR_CONFIRMED"
)

// StakeholderStatus composes the status key for a stakeholder role and action,
// e.g. StakeholderStatus(RoleTenant, ActionRejectsTheOffer) ==
// "TENANT_REJECTS_THE_OFFER".
func StakeholderStatus(role Role, action StatusAction) StatusKey {
	return StatusKey(string(role) + "_" + string(action))
}

// CompanyGiveOfferTo returns the company status that hands an offer back to
// the given stakeholder role.
func CompanyGiveOfferTo(role Role) StatusKey {
	return StatusKey("COMPANY_GIVE_OFFER_TO_" + string(role))
}

// CompanyProposeDateTo returns the company status that proposes a repair
// appointment to the given stakeholder role.
func CompanyProposeDateTo(role Role) StatusKey {
	return StatusKey("COMPANY_PROPOSE_DATE_TO_" + string(role))
}

// StatusFamily groups status keys that share transition behavior regardless
// of the authoring role.
type StatusFamily string

const (
	FamilyCreate          StatusFamily = "CREATE"
	FamilySendToCompany   StatusFamily = "SEND_TO_COMPANY"
	FamilyOfferGiven      StatusFamily = "OFFER_GIVEN"
	FamilyAcceptOffer     StatusFamily = "ACCEPT_OFFER"
	FamilyRejectOffer     StatusFamily = "REJECT_OFFER"
	FamilyRequestNewOffer StatusFamily = "REQUEST_NEW_OFFER"
	FamilyDateProposed    StatusFamily = "DATE_PROPOSED"
	FamilyAcceptDate      StatusFamily = "ACCEPT_DATE"
	FamilyRejectDate      StatusFamily = "REJECT_DATE"
	FamilyCompanyReject   StatusFamily = "COMPANY_REJECT"
	FamilyDefectRaised    StatusFamily = "DEFECT_RAISED"
	FamilyRepairConfirmed StatusFamily = "REPAIR_CONFIRMED"
	FamilyClose           StatusFamily = "CLOSE"
)

// ResponsibleSide says who must act next once a ticket enters a status.
type ResponsibleSide string

const (
	ResponsibleCompany     ResponsibleSide = "COMPANY"
	ResponsibleStakeholder ResponsibleSide = "STAKEHOLDER"
	ResponsibleNone        ResponsibleSide = "NONE"
)

// StatusInfo is the registry metadata attached to one status key.
type StatusInfo struct {
	Key             StatusKey
	Label           string
	Family          StatusFamily
	CommentRequired bool
	// AuthorRoles lists the roles allowed to set this status. RoleAdmin is
	// implicitly allowed everywhere and is not listed.
	AuthorRoles []Role
	// Responsible says which side of the negotiation must act next.
	Responsible ResponsibleSide
	// StakeholderRole is the stakeholder a status concerns: the authoring
	// role for stakeholder keys, the addressed role for company keys.
	// Empty for shared keys, where the ticket's creator role applies.
	StakeholderRole Role
}

// registry is the process-wide immutable status table, built once at init.
var registry = buildRegistry()

func buildRegistry() map[StatusKey]StatusInfo {
	table := make(map[StatusKey]StatusInfo)

	add := func(info StatusInfo) {
		if _, exists := table[info.Key]; exists {
			panic(fmt.Sprintf("duplicate status key %s", info.Key))
		}
		table[info.Key] = info
	}

	for _, role := range StakeholderRoles {
		for _, action := range stakeholderActions {
			add(StatusInfo{
				Key:             StakeholderStatus(role, action),
				Label:           statusLabel(role, action),
				Family:          stakeholderFamily(action),
				CommentRequired: actionRequiresComment(action),
				AuthorRoles:     []Role{role},
				Responsible:     stakeholderResponsible(action),
				StakeholderRole: role,
			})
		}

		add(StatusInfo{
			Key:             CompanyGiveOfferTo(role),
			Label:           "Company submitted an offer to the " + roleLabel(role),
			Family:          FamilyOfferGiven,
			AuthorRoles:     []Role{RoleCompany, RoleCompanyUser},
			Responsible:     ResponsibleStakeholder,
			StakeholderRole: role,
		})
		add(StatusInfo{
			Key:             CompanyProposeDateTo(role),
			Label:           "Company proposed a repair date to the " + roleLabel(role),
			Family:          FamilyDateProposed,
			AuthorRoles:     []Role{RoleCompany, RoleCompanyUser},
			Responsible:     ResponsibleStakeholder,
			StakeholderRole: role,
		})
	}

	add(StatusInfo{
		Key:             StatusCompanyRejectTheDamage,
		Label:           "Company rejected the damage request",
		Family:          FamilyCompanyReject,
		CommentRequired: true,
		AuthorRoles:     []Role{RoleCompany, RoleCompanyUser},
		Responsible:     ResponsibleStakeholder,
	})
	add(StatusInfo{
		Key:         StatusDefectRaised,
		Label:       "Company recorded the underlying defect",
		Family:      FamilyDefectRaised,
		AuthorRoles: []Role{RoleCompany, RoleCompanyUser},
		Responsible: ResponsibleStakeholder,
	})
	add(StatusInfo{
		Key:         StatusRepairConfirmed,
		Label:       "Repair confirmed",
		Family:      FamilyRepairConfirmed,
		AuthorRoles: []Role{RoleCompany, RoleCompanyUser},
		Responsible: ResponsibleStakeholder,
	})

	return table
}

func stakeholderFamily(action StatusAction) StatusFamily {
	switch action {
	case ActionCreateDamage:
		return FamilyCreate
	case ActionSendToCompanyWith, ActionSendToCompanyWithout:
		return FamilySendToCompany
	case ActionAcceptsTheOffer:
		return FamilyAcceptOffer
	case ActionRejectsTheOffer:
		return FamilyRejectOffer
	case ActionRequestsNewOffer:
		return FamilyRequestNewOffer
	case ActionAcceptsTheDate:
		return FamilyAcceptDate
	case ActionRejectsTheDate:
		return FamilyRejectDate
	case ActionCloseTheDamage:
		return FamilyClose
	}
	panic("unmapped status action " + string(action))
}

func actionRequiresComment(action StatusAction) bool {
	switch action {
	case ActionRejectsTheOffer, ActionRejectsTheDate, ActionRequestsNewOffer:
		return true
	}
	return false
}

func stakeholderResponsible(action StatusAction) ResponsibleSide {
	switch action {
	case ActionCreateDamage:
		return ResponsibleStakeholder
	case ActionSendToCompanyWith, ActionSendToCompanyWithout,
		ActionAcceptsTheOffer, ActionRequestsNewOffer, ActionAcceptsTheDate:
		return ResponsibleCompany
	case ActionRejectsTheOffer, ActionRejectsTheDate:
		return ResponsibleCompany
	case ActionCloseTheDamage:
		return ResponsibleNone
	}
	return ResponsibleStakeholder
}

func statusLabel(role Role, action StatusAction) string {
	who := roleLabel(role)
	switch action {
	case ActionCreateDamage:
		return capitalize(who) + " reported a damage"
	case ActionSendToCompanyWith:
		return capitalize(who) + " sent the damage to a company requesting an offer"
	case ActionSendToCompanyWithout:
		return capitalize(who) + " sent the damage to a company without an offer"
	case ActionAcceptsTheOffer:
		return capitalize(who) + " accepted the offer"
	case ActionRejectsTheOffer:
		return capitalize(who) + " rejected the offer"
	case ActionRequestsNewOffer:
		return capitalize(who) + " requested a new offer"
	case ActionAcceptsTheDate:
		return capitalize(who) + " accepted the repair date"
	case ActionRejectsTheDate:
		return capitalize(who) + " rejected the repair date"
	case ActionCloseTheDamage:
		return capitalize(who) + " closed the damage"
	}
	return string(role) + " " + string(action)
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func roleLabel(role Role) string {
	switch role {
	case RoleTenant:
		return "tenant"
	case RoleOwner:
		return "owner"
	case RoleObjectOwner:
		return "object owner"
	case RolePropertyAdmin:
		return "property administrator"
	case RoleJanitor:
		return "janitor"
	}
	return strings.ToLower(string(role))
}

// DescribeStatus returns the registry entry for a key, or ErrUnknownStatus
// when the key is not part of the fixed table. The registry is immutable and
// safe for unsynchronized concurrent reads.
func DescribeStatus(key StatusKey) (StatusInfo, error) {
	info, ok := registry[key]
	if !ok {
		return StatusInfo{}, fmt.Errorf("%w: %s", ErrUnknownStatus, key)
	}
	return info, nil
}

// AllStatusKeys returns every registered key. Order is unspecified.
func AllStatusKeys() []StatusKey {
	keys := make([]StatusKey, 0, len(registry))
	for key := range registry {
		keys = append(keys, key)
	}
	return keys
}

// IsTerminal reports whether a key belongs to the closing family.
func (k StatusKey) IsTerminal() bool {
	info, ok := registry[k]
	return ok && info.Family == FamilyClose
}

// allowedNextFamilies is the reachability graph between status families.
// Keys absent from the map are terminal apart from the re-close no-op.
var allowedNextFamilies = map[StatusFamily][]StatusFamily{
	FamilyCreate:          {FamilySendToCompany, FamilyClose},
	FamilySendToCompany:   {FamilyOfferGiven, FamilyDateProposed, FamilyCompanyReject, FamilyDefectRaised, FamilyClose},
	FamilyOfferGiven:      {FamilyAcceptOffer, FamilyRejectOffer, FamilyClose},
	FamilyAcceptOffer:     {FamilyDateProposed, FamilyDefectRaised, FamilyClose},
	FamilyRejectOffer:     {FamilyRequestNewOffer, FamilySendToCompany, FamilyClose},
	FamilyRequestNewOffer: {FamilyOfferGiven, FamilyCompanyReject, FamilyClose},
	FamilyDateProposed:    {FamilyAcceptDate, FamilyRejectDate, FamilyClose},
	FamilyAcceptDate:      {FamilyRepairConfirmed, FamilyDefectRaised, FamilyClose},
	FamilyRejectDate:      {FamilyDateProposed, FamilyClose},
	FamilyCompanyReject:   {FamilySendToCompany, FamilyClose},
	FamilyDefectRaised:    {FamilyOfferGiven, FamilyDateProposed, FamilyRepairConfirmed, FamilyClose},
	FamilyRepairConfirmed: {FamilyClose},
	FamilyClose:           {FamilyClose},
}

// CanTransition reports whether a ticket in `current` may move to `next`.
// Both keys must be registered; unknown keys never transition.
func CanTransition(current, next StatusKey) bool {
	from, ok := registry[current]
	if !ok {
		return false
	}
	to, ok := registry[next]
	if !ok {
		return false
	}
	for _, family := range allowedNextFamilies[from.Family] {
		if family == to.Family {
			return true
		}
	}
	return false
}

// AwaitingCompanyStatuses returns every key whose responsible side is the
// company; these are the states scanned by the company-response escalation.
func AwaitingCompanyStatuses() []StatusKey {
	return statusesByResponsible(ResponsibleCompany)
}

// AwaitingStakeholderStatuses returns every non-create key whose responsible
// side is a stakeholder; scanned by the damage-response escalation.
func AwaitingStakeholderStatuses() []StatusKey {
	keys := make([]StatusKey, 0)
	for key, info := range registry {
		if info.Responsible != ResponsibleStakeholder || info.Family == FamilyCreate {
			continue
		}
		keys = append(keys, key)
	}
	return keys
}

func statusesByResponsible(side ResponsibleSide) []StatusKey {
	keys := make([]StatusKey, 0)
	for key, info := range registry {
		if info.Responsible == side {
			keys = append(keys, key)
		}
	}
	return keys
}

// AuthorRoleAllowed reports whether role may author the given status.
// RoleAdmin may author everything.
func (info StatusInfo) AuthorRoleAllowed(role Role) bool {
	if role == RoleAdmin {
		return true
	}
	for _, allowed := range info.AuthorRoles {
		if allowed == role {
			return true
		}
	}
	return false
}
