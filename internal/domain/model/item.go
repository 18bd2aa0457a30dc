//revive:disable-next-line:var-naming // legacy package name widely used across the project
package model

// Item is implemented by all dashboard models persisted in the collection
// store. Items are addressed by account, parent collection, and item id.
type Item interface {
	Key() ItemKey
}

// ItemKey is the composite address of one stored item.
type ItemKey struct {
	AccountID string `json:"account_id"`
	ParentID  string `json:"parent_id"`
	ItemID    string `json:"item_id"`
}

// String renders the key in "{account}~{parent}~{item}" form.
func (k ItemKey) String() string {
	return k.AccountID + "~" + k.ParentID + "~" + k.ItemID
}
