package service

// Authorize checks that the acting identity is the owner of the targeted cart.
// It is a pure comparison with no I/O and must pass before any cart operation
// runs. The identity arrives as an explicit parameter; nothing is read from
// ambient state.
func Authorize(actingID, ownerID string) error {
	if actingID == "" || actingID != ownerID {
		return ErrUnauthorized
	}
	return nil
}
