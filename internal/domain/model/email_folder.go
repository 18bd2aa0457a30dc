//revive:disable-next-line:var-naming // legacy package name widely used across the project
package model

// EmailFolder is one mail folder with its unread and total counts.
type EmailFolder struct {
	AccountID string `json:"account_id"`
	ItemID    string `json:"item_id"`
	Name      string `json:"name"`
	Total     int    `json:"total"`
	Unread    int    `json:"unread"`
}

// Key returns the folder's composite store address.
func (f EmailFolder) Key() ItemKey {
	return ItemKey{AccountID: f.AccountID, ItemID: f.ItemID}
}
