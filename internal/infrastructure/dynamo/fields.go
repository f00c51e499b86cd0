package dynamo

// DynamoDB attribute names that are not session-record keys.
// Using constants prevents silent runtime bugs caused by key typos.
const (
	fieldRecordID  = "record_id"
	fieldUpdatedAt = "updated_at"
)
