// Package receiver consumes decoded signals from MQTT and drives the
// translation registry.
//
// Hardware decoders publish decoded signal tuples as JSON on
// irkeyd/signal/{decoder}. The receiver parses each message, runs it
// through the registry, records the outcome in the signal log, and
// optionally publishes a translation event back to MQTT:
//
//	irkeyd/signal/+  ──▶  Receiver ──▶ Registry.Translate
//	                          │
//	                          ├──▶ signal log (SQLite)
//	                          ├──▶ telemetry (InfluxDB)
//	                          └──▶ irkeyd/event/translation
//
// The receiver also reports health counters on irkeyd/system/receiver at
// a configurable interval.
//
// Malformed messages are counted and dropped; they never stop the
// receiver or affect later signals.
package receiver
