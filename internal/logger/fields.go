package logger

// Standard field keys for structured logging. Use these consistently so the
// per-device log stream can be filtered by IMEI in aggregation tooling.
const (
	KeyIMEI    = "imei"    // device identity, partition key for all state
	KeyClient  = "client"  // remote TCP address of the tracker connection
	KeyCommand = "command" // GPRS command text (e.g. "setdigout 1")
	KeyFrame   = "frame"   // hex dump of a rejected frame
	KeyRecords = "records" // record count in an uplink batch
	KeyIOID    = "io_id"   // AVL IO element identifier
)
