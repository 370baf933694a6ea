package history

// SQL for the ledger. The reduction query implements latest-per-identity:
// greatest update_stamp wins, ties broken by highest surrogate id.
const (
	selectLatestPerIdentity = `
		SELECT DISTINCT ON (LOWER(identity))
			id, identity, status, department, groups, street_address, email, update_stamp
		FROM ad_user_history
		ORDER BY LOWER(identity), update_stamp DESC, id DESC`

	insertRecord = `
		INSERT INTO ad_user_history (identity, status, department, groups, street_address, email, update_stamp)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	markInactive = `
		UPDATE ad_user_history
		SET status = $1, update_stamp = $2
		WHERE id = $3`

	selectByIdentity = `
		SELECT id, identity, status, department, groups, street_address, email, update_stamp
		FROM ad_user_history
		WHERE LOWER(identity) = LOWER($1)
		ORDER BY update_stamp DESC, id DESC`
)
