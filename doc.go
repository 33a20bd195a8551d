// Package folio reconstructs an investor's holdings, cash flows and gains
// from a heterogeneous transaction ledger, and values them in a single base
// currency.
//
// The pipeline runs one way:
//   - Classify: broker specific transaction types are mapped to an Action
//     (trade, cash_flow, income, corporate_action, ignore) with an explicit
//     Mapping. Unknown types are an error.
//   - Normalize: classified rows are checked and reshaped into Streams of
//     trades, cash flows, income and corporate events. Ignored rows are kept
//     in the Audit.
//   - Reconstruct: each symbol is replayed day by day into a dense holdings
//     series and a FIFO lot Book, applying splits and mergers on their date.
//     Splits reported by the price history win over ledger splits.
//   - Valuate: symbols are valuated in parallel, converted to the base
//     currency with Rates, and rolled up into the portfolio. Realized gains,
//     unrealized gains and income are kept apart.
//
// The engine performs no I/O: the market package fetches prices and rates,
// and the folio command ties everything together.
package folio
