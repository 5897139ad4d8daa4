// File: api/callback.go
// Author: momentics <momentics@gmail.com>
//
// Dispatch hooks: the integration points where the completion loop hands a
// ready fd back to its consumer.

package api

// Callback is invoked by the completion loop once per CQE, once for the
// input side (if the translated mask includes Readable, Error or Hangup)
// and once for the output side (if it includes Writable, Error or Hangup).
// attr carries the attributes the loop itself was started with, so a
// callback dispatched into the scheduler can propagate them to whatever
// task it spawns next.
type Callback func(token EventToken, events EventMask, attr TaskAttr)
