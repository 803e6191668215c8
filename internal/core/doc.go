// Package core provides the business logic for product CSV imports.
//
// The package has no transport or database dependencies. Web handlers,
// tests and tools drive it through [Service], which is wired to a
// [RateSource] and a [ProductStore].
//
// # Import Flow
//
//  1. [Service.Import] validates the strategy and file name.
//  2. An [ImportLimiter] slot is taken; a busy system returns [ErrTooManyImports].
//  3. The current [ExchangeRate] is fetched from the [RateSource].
//  4. [RunPipeline] decodes the upload, detects the header and parses each
//     row with [ParseRow].
//  5. Under [StrategyAtomic] any row issue rejects the batch; otherwise the
//     products are saved in one transaction.
//
// # File Format
//
// Fields are separated by ';'. The first record is a header when it names
// name, price and expiration in any order; otherwise columns are read in
// that order and the first record is data. Prices look like "$163.88" and
// dates like "1/14/2023".
//
// # Money
//
// Prices are carried as [precise.Number] values and stored as int64 minor
// units per currency. Conversions truncate to each currency's precision
// (USD, EUR, BRL: 2; JPY: 0; BTC: 8).
//
// # Errors
//
// Problems the client can fix are returned as [*ValidationError] with a list
// of [ValidationIssue]. Dependency failures are [*ServiceError]. Anything else
// is a wrapped technical error; [MapError] turns it into a coded message.
package core
