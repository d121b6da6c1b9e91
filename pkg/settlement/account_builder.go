package settlement

import "encoding/json"

// SettlementAccountBuilder accumulates the fields of a payout account.
// The type is checked as soon as it is set; everything else waits for Build.
type SettlementAccountBuilder struct {
	nickname          string
	accountType       AccountType
	accountNumber     *string
	ifscCode          *string
	accountHolderName *string
	virtualAddress    *string
}

// NewSettlementAccountBuilder returns an empty builder.
func NewSettlementAccountBuilder() *SettlementAccountBuilder {
	return &SettlementAccountBuilder{}
}

// SetNickname sets the display name; Build requires it.
func (b *SettlementAccountBuilder) SetNickname(nickname string) *SettlementAccountBuilder {
	b.nickname = nickname
	return b
}

// SetType fails immediately unless t is "vpa" or "bank_account". On failure
// the builder keeps its previous type.
func (b *SettlementAccountBuilder) SetType(t string) (*SettlementAccountBuilder, error) {
	accountType, err := ParseAccountType(t)
	if err != nil {
		return b, err
	}
	b.accountType = accountType
	return b, nil
}

// SetAccountNumber sets the bank account number, used for bank_account only.
func (b *SettlementAccountBuilder) SetAccountNumber(number string) *SettlementAccountBuilder {
	b.accountNumber = &number
	return b
}

// SetIfscCode sets the bank branch IFSC code, used for bank_account only.
func (b *SettlementAccountBuilder) SetIfscCode(code string) *SettlementAccountBuilder {
	b.ifscCode = &code
	return b
}

// SetAccountHolderName sets the name on the bank account, used for bank_account only.
func (b *SettlementAccountBuilder) SetAccountHolderName(name string) *SettlementAccountBuilder {
	b.accountHolderName = &name
	return b
}

// SetVirtualAddress sets the payment address, used for vpa only.
func (b *SettlementAccountBuilder) SetVirtualAddress(vpa string) *SettlementAccountBuilder {
	b.virtualAddress = &vpa
	return b
}

// Build validates the fields required by the account type and returns the
// payload. Fields belonging to the other account type are always null.
func (b *SettlementAccountBuilder) Build() (AccountPayload, error) {
	if b.nickname == "" || b.accountType == "" {
		return AccountPayload{}, &ValidationError{Message: "required fields are missing"}
	}

	switch b.accountType {
	case AccountTypeBankAccount:
		if isBlank(b.accountHolderName) || isBlank(b.accountNumber) || isBlank(b.ifscCode) {
			return AccountPayload{}, &ValidationError{Field: "bank_account", Message: "bank account details are missing"}
		}
	case AccountTypeVPA:
		if isBlank(b.virtualAddress) {
			return AccountPayload{}, &ValidationError{Field: "virtual_address", Message: "virtual address is required for VPA account type"}
		}
	}

	p := AccountPayload{nickname: b.nickname, accountType: b.accountType}
	if b.accountType == AccountTypeBankAccount {
		p.accountNumber = cloneString(b.accountNumber)
		p.ifscCode = cloneString(b.ifscCode)
		p.accountHolderName = cloneString(b.accountHolderName)
	} else {
		p.virtualAddress = cloneString(b.virtualAddress)
	}
	return p, nil
}

// AccountPayload is the body of POST /settlements/account.
type AccountPayload struct {
	nickname          string
	accountType       AccountType
	accountNumber     *string
	ifscCode          *string
	accountHolderName *string
	virtualAddress    *string
}

func (p AccountPayload) Nickname() string  { return p.nickname }
func (p AccountPayload) Type() AccountType { return p.accountType }

func (p AccountPayload) AccountNumber() (string, bool)     { return derefString(p.accountNumber) }
func (p AccountPayload) IfscCode() (string, bool)          { return derefString(p.ifscCode) }
func (p AccountPayload) AccountHolderName() (string, bool) { return derefString(p.accountHolderName) }
func (p AccountPayload) VirtualAddress() (string, bool)    { return derefString(p.virtualAddress) }

// MarshalJSON emits every key; unset fields are null.
func (p AccountPayload) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Nickname          string      `json:"nickname"`
		Type              AccountType `json:"type"`
		AccountNumber     *string     `json:"account_number"`
		IfscCode          *string     `json:"ifsc_code"`
		AccountHolderName *string     `json:"account_holder_name"`
		VirtualAddress    *string     `json:"virtual_address"`
	}{
		Nickname:          p.nickname,
		Type:              p.accountType,
		AccountNumber:     p.accountNumber,
		IfscCode:          p.ifscCode,
		AccountHolderName: p.accountHolderName,
		VirtualAddress:    p.virtualAddress,
	})
}

func isBlank(s *string) bool {
	return s == nil || *s == ""
}
