package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryCoversEveryRoleAndAction(t *testing.T) {
	keys := AllStatusKeys()
	// 5 roles x 9 actions, plus an offer and a date key per role, plus the
	// three shared keys.
	assert.Len(t, keys, 5*9+2*5+3)

	for _, role := range StakeholderRoles {
		for _, action := range stakeholderActions {
			_, err := DescribeStatus(StakeholderStatus(role, action))
			assert.NoError(t, err, "missing %s", StakeholderStatus(role, action))
		}
		_, err := DescribeStatus(CompanyGiveOfferTo(role))
		assert.NoError(t, err)
		_, err = DescribeStatus(CompanyProposeDateTo(role))
		assert.NoError(t, err)
	}
}

func TestDescribeStatusUnknownKey(t *testing.T) {
	_, err := DescribeStatus("TENANT_PAINTS_THE_WALLS")
	assert.ErrorIs(t, err, ErrUnknownStatus)

	_, err = DescribeStatus("")
	assert.ErrorIs(t, err, ErrUnknownStatus)
}

func TestCommentRequiredFlags(t *testing.T) {
	required := []StatusKey{
		StakeholderStatus(RoleTenant, ActionRejectsTheOffer),
		StakeholderStatus(RoleOwner, ActionRejectsTheDate),
		StakeholderStatus(RoleJanitor, ActionRequestsNewOffer),
		StatusCompanyRejectTheDamage,
	}
	for _, key := range required {
		info, err := DescribeStatus(key)
		require.NoError(t, err)
		assert.True(t, info.CommentRequired, "%s should require a comment", key)
	}

	optional := []StatusKey{
		StakeholderStatus(RoleTenant, ActionAcceptsTheOffer),
		StakeholderStatus(RoleTenant, ActionCloseTheDamage),
		CompanyGiveOfferTo(RoleTenant),
		StatusRepairConfirmed,
	}
	for _, key := range optional {
		info, err := DescribeStatus(key)
		require.NoError(t, err)
		assert.False(t, info.CommentRequired, "%s should not require a comment", key)
	}
}

func TestCanTransition(t *testing.T) {
	create := StakeholderStatus(RoleTenant, ActionCreateDamage)
	send := StakeholderStatus(RoleTenant, ActionSendToCompanyWith)
	offer := CompanyGiveOfferTo(RoleTenant)
	accept := StakeholderStatus(RoleTenant, ActionAcceptsTheOffer)
	reject := StakeholderStatus(RoleTenant, ActionRejectsTheOffer)
	date := CompanyProposeDateTo(RoleTenant)
	acceptDate := StakeholderStatus(RoleTenant, ActionAcceptsTheDate)
	close := StakeholderStatus(RoleTenant, ActionCloseTheDamage)

	// The straight path through a negotiation.
	assert.True(t, CanTransition(create, send))
	assert.True(t, CanTransition(send, offer))
	assert.True(t, CanTransition(offer, accept))
	assert.True(t, CanTransition(accept, date))
	assert.True(t, CanTransition(date, acceptDate))
	assert.True(t, CanTransition(acceptDate, StatusRepairConfirmed))
	assert.True(t, CanTransition(StatusRepairConfirmed, close))

	// Detours.
	assert.True(t, CanTransition(offer, reject))
	assert.True(t, CanTransition(reject, StakeholderStatus(RoleTenant, ActionRequestsNewOffer)))
	assert.True(t, CanTransition(reject, send))
	assert.True(t, CanTransition(send, StatusCompanyRejectTheDamage))
	assert.True(t, CanTransition(StatusCompanyRejectTheDamage, send))
	assert.True(t, CanTransition(acceptDate, StatusDefectRaised))
	assert.True(t, CanTransition(StatusDefectRaised, StatusRepairConfirmed))

	// Transitions across roles work through the shared family graph.
	assert.True(t, CanTransition(create, StakeholderStatus(RoleOwner, ActionSendToCompanyWithout)))

	// Skips and reversals are blocked.
	assert.False(t, CanTransition(create, accept))
	assert.False(t, CanTransition(create, offer))
	assert.False(t, CanTransition(offer, date))
	assert.False(t, CanTransition(accept, send))
	assert.False(t, CanTransition(StatusRepairConfirmed, date))

	// Closing is always one step away, and re-closing is the only move after.
	for _, key := range AllStatusKeys() {
		assert.True(t, CanTransition(key, close), "%s should reach close", key)
	}
	assert.True(t, CanTransition(close, StakeholderStatus(RoleOwner, ActionCloseTheDamage)))
	assert.False(t, CanTransition(close, send))

	// Unknown keys never transition.
	assert.False(t, CanTransition("BOGUS", close))
	assert.False(t, CanTransition(create, "BOGUS"))
}

func TestIsTerminal(t *testing.T) {
	for _, role := range StakeholderRoles {
		assert.True(t, StakeholderStatus(role, ActionCloseTheDamage).IsTerminal())
	}
	assert.False(t, StakeholderStatus(RoleTenant, ActionCreateDamage).IsTerminal())
	assert.False(t, StatusRepairConfirmed.IsTerminal())
	assert.False(t, StatusKey("BOGUS").IsTerminal())
}

func TestAuthorRoleAllowed(t *testing.T) {
	send, err := DescribeStatus(StakeholderStatus(RoleTenant, ActionSendToCompanyWith))
	require.NoError(t, err)
	assert.True(t, send.AuthorRoleAllowed(RoleTenant))
	assert.False(t, send.AuthorRoleAllowed(RoleOwner))
	assert.False(t, send.AuthorRoleAllowed(RoleCompany))
	assert.True(t, send.AuthorRoleAllowed(RoleAdmin))

	offer, err := DescribeStatus(CompanyGiveOfferTo(RoleTenant))
	require.NoError(t, err)
	assert.True(t, offer.AuthorRoleAllowed(RoleCompany))
	assert.True(t, offer.AuthorRoleAllowed(RoleCompanyUser))
	assert.False(t, offer.AuthorRoleAllowed(RoleTenant))
}

func TestEscalationStatusSets(t *testing.T) {
	company := make(map[StatusKey]bool)
	for _, key := range AwaitingCompanyStatuses() {
		company[key] = true
	}
	stakeholder := make(map[StatusKey]bool)
	for _, key := range AwaitingStakeholderStatuses() {
		stakeholder[key] = true
	}

	// A ticket sent to a company waits on the company; an offer on the table
	// waits on the stakeholder. The sets never overlap.
	assert.True(t, company[StakeholderStatus(RoleTenant, ActionSendToCompanyWith)])
	assert.True(t, company[StakeholderStatus(RoleOwner, ActionAcceptsTheDate)])
	assert.True(t, stakeholder[CompanyGiveOfferTo(RoleTenant)])
	assert.True(t, stakeholder[StatusCompanyRejectTheDamage])
	for key := range company {
		assert.False(t, stakeholder[key], "%s in both escalation sets", key)
	}

	// Fresh and closed tickets are never escalated.
	assert.False(t, company[StakeholderStatus(RoleTenant, ActionCreateDamage)])
	assert.False(t, stakeholder[StakeholderStatus(RoleTenant, ActionCreateDamage)])
	assert.False(t, company[StakeholderStatus(RoleTenant, ActionCloseTheDamage)])
	assert.False(t, stakeholder[StakeholderStatus(RoleTenant, ActionCloseTheDamage)])
}

func TestStatusLabels(t *testing.T) {
	info, err := DescribeStatus(StakeholderStatus(RoleTenant, ActionCreateDamage))
	require.NoError(t, err)
	assert.Equal(t, "Tenant reported a damage", info.Label)

	info, err = DescribeStatus(CompanyProposeDateTo(RolePropertyAdmin))
	require.NoError(t, err)
	assert.Equal(t, "Company proposed a repair date to the property administrator", info.Label)
}
