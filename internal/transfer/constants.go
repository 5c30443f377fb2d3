package transfer

// maxFailures is the per-path retry cap: three transient failures and the
// engine gives up on that path for the rest of the run.
const maxFailures = 3
