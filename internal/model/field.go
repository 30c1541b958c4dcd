package model

import "fmt"

// Field identifies one of the semantic fields compared across a claim's documents
type Field string

const (
	FieldClaimNumber     Field = "claim_number"
	FieldPolicyNumber    Field = "policy_number"
	FieldInsuredName     Field = "insured_name"
	FieldAdjusterName    Field = "adjuster_name"
	FieldDateOfLoss      Field = "date_of_loss"
	FieldInsuredPhone    Field = "insured_phone"
	FieldAdjusterPhone   Field = "adjuster_phone"
	FieldInsuredEmail    Field = "insured_email"
	FieldAdjusterEmail   Field = "adjuster_email"
	FieldPropertyAddress Field = "property_address"
	FieldLossAmount      Field = "loss_amount"
	FieldPaymentAmount   Field = "payment_amount"
	FieldDeductible      Field = "deductible"
)

// AllFields lists every validated field in canonical order.
// Extraction and validation both iterate in this order.
var AllFields = []Field{
	FieldClaimNumber,
	FieldPolicyNumber,
	FieldInsuredName,
	FieldAdjusterName,
	FieldDateOfLoss,
	FieldInsuredPhone,
	FieldAdjusterPhone,
	FieldInsuredEmail,
	FieldAdjusterEmail,
	FieldPropertyAddress,
	FieldLossAmount,
	FieldPaymentAmount,
	FieldDeductible,
}

// FieldCategory groups fields that share an acceptance check and confidence
type FieldCategory string

const (
	CategoryIdentifier FieldCategory = "identifier"
	CategoryDate       FieldCategory = "date"
	CategoryName       FieldCategory = "name"
	CategoryPhone      FieldCategory = "phone"
	CategoryEmail      FieldCategory = "email"
	CategoryAddress    FieldCategory = "address"
	CategoryAmount     FieldCategory = "amount"
)

// Category returns the semantic category of the field.
// The switch is exhaustive over AllFields; an unknown field is a programming error.
func (f Field) Category() FieldCategory {
	switch f {
	case FieldClaimNumber, FieldPolicyNumber:
		return CategoryIdentifier
	case FieldDateOfLoss:
		return CategoryDate
	case FieldInsuredName, FieldAdjusterName:
		return CategoryName
	case FieldInsuredPhone, FieldAdjusterPhone:
		return CategoryPhone
	case FieldInsuredEmail, FieldAdjusterEmail:
		return CategoryEmail
	case FieldPropertyAddress:
		return CategoryAddress
	case FieldLossAmount, FieldPaymentAmount, FieldDeductible:
		return CategoryAmount
	}
	panic(fmt.Sprintf("model: unhandled field %q", string(f)))
}

// IsAmount reports whether the field holds a monetary value
func (f Field) IsAmount() bool {
	return f.Category() == CategoryAmount
}

// ParseField converts a wire name into a Field
func ParseField(s string) (Field, error) {
	for _, f := range AllFields {
		if string(f) == s {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown field %q", s)
}

// ExtractedValue is one candidate value found in a document's text
type ExtractedValue struct {
	Value      string   `json:"value"`
	Confidence float64  `json:"confidence"`
	Location   Location `json:"location"`
}

// ExtractedFields is a sparse record of extracted values keyed by field
type ExtractedFields map[Field]ExtractedValue

// DocumentFields pairs a document with the fields extracted from it
type DocumentFields struct {
	DocumentID   string          `json:"document_id"`
	DocumentName string          `json:"document_name"`
	Fields       ExtractedFields `json:"fields"`
}
