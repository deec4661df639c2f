package types

// Version is the canonical decomp client version.
// The CLI, the journal record format and the notification payload share it.
const Version = "0.3.0"

// ContractVersion is stamped on run_completed notifications.
// It moves in lockstep with Version.
const ContractVersion = Version
