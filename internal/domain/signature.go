package domain

// ProductSignature identifies what was produced or ordered: a product optionally
// specialised by offer, variation and modification.
type ProductSignature struct {
	ProductID      string  `bson:"productId" json:"productId"`
	OfferID        *string `bson:"offerId,omitempty" json:"offerId,omitempty"`
	VariationID    *string `bson:"variationId,omitempty" json:"variationId,omitempty"`
	ModificationID *string `bson:"modificationId,omitempty" json:"modificationId,omitempty"`
}

// Matches reports whether two signatures name the same item. An absent optional id
// only matches another absent one; it is not a wildcard.
func (s ProductSignature) Matches(other ProductSignature) bool {
	return s.ProductID == other.ProductID &&
		optionalEqual(s.OfferID, other.OfferID) &&
		optionalEqual(s.VariationID, other.VariationID) &&
		optionalEqual(s.ModificationID, other.ModificationID)
}

func optionalEqual(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
