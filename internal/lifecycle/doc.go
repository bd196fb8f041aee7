/*
Lifecycle owns order state and turns every state change into an execution report.

# Module
  - manager: submit, fill, cancel, reject, cancel request
  - venue: the policy deciding when and how an accepted order executes

# Source
  - new order single from router
  - order cancel request from router
  - fills and rejects from venue

# Produce
  - execution report to session
  - business message reject to session
  - order cancel reject to session

# Sharded
  - per order key
*/
package lifecycle
