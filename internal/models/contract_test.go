package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDeriveContractStatus(t *testing.T) {
	tests := []struct {
		name     string
		roles    []SignerRole
		expected ContractStatus
	}{
		{name: "no signatures", roles: nil, expected: ContractStatusPending},
		{name: "supervisor only", roles: []SignerRole{SignerSupervisor}, expected: ContractStatusSignedSupervisor},
		{name: "client only", roles: []SignerRole{SignerClient}, expected: ContractStatusSignedClient},
		{name: "supervisor then client", roles: []SignerRole{SignerSupervisor, SignerClient}, expected: ContractStatusCompleted},
		{name: "client then supervisor", roles: []SignerRole{SignerClient, SignerSupervisor}, expected: ContractStatusCompleted},
		{name: "unknown roles ignored", roles: []SignerRole{"witness"}, expected: ContractStatusPending},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, DeriveContractStatus(tt.roles))
		})
	}
}

func TestDeriveContractStatus_SignedStatesAfterAnySignature(t *testing.T) {
	signed := map[ContractStatus]bool{
		ContractStatusSignedSupervisor: true,
		ContractStatusSignedClient:     true,
		ContractStatusCompleted:        true,
	}

	sets := [][]SignerRole{
		{SignerSupervisor},
		{SignerClient},
		{SignerSupervisor, SignerClient},
		{SignerClient, SignerSupervisor},
	}

	for _, roles := range sets {
		assert.True(t, signed[DeriveContractStatus(roles)], "roles %v", roles)
	}
}

func TestFormatContractNumber(t *testing.T) {
	assert.Equal(t, "CTR-20240001", FormatContractNumber(2024, 1))
	assert.Equal(t, "CTR-20250042", FormatContractNumber(2025, 42))
	assert.Equal(t, "CTR-202612345", FormatContractNumber(2026, 12345))
}

func TestContractStatus_CanTransitionTo(t *testing.T) {
	tests := []struct {
		from     ContractStatus
		to       ContractStatus
		expected bool
	}{
		{ContractStatusGenerated, ContractStatusApproved, true},
		{ContractStatusSignedClient, ContractStatusCompleted, true},
		{ContractStatusPending, ContractStatusApproved, false},
		{ContractStatusApproved, ContractStatusCompleted, false},
		{ContractStatusSignedSupervisor, ContractStatusCompleted, false},
		{ContractStatusCompleted, ContractStatusApproved, false},
		{ContractStatusGenerated, ContractStatusSignedClient, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestContractStatus_AllowsTermEdit(t *testing.T) {
	assert.True(t, ContractStatusPending.AllowsTermEdit())
	assert.True(t, ContractStatusGenerated.AllowsTermEdit())
	assert.True(t, ContractStatusApproved.AllowsTermEdit())
	assert.False(t, ContractStatusSignedSupervisor.AllowsTermEdit())
	assert.False(t, ContractStatusSignedClient.AllowsTermEdit())
	assert.False(t, ContractStatusCompleted.AllowsTermEdit())
}

func TestSignerRoles(t *testing.T) {
	roles := SignerRoles([]ContractSignature{
		{SignedBy: SignerClient},
		{SignedBy: SignerSupervisor},
	})
	assert.Equal(t, []SignerRole{SignerClient, SignerSupervisor}, roles)
	assert.Empty(t, SignerRoles(nil))
}
