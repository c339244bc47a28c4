// Package tax holds the Brazilian fiscal model used to price taxes on order lines.
//
// Four taxes are composed per line: ICMS (state VAT, rate chosen by the
// origin/destination state pair), PIS and COFINS (federal contributions, rate
// chosen by product, then NCM classification, then the legal default) and IPI
// (federal excise, only charged when a product or NCM rate is configured).
// Customer exemptions can zero a tax or replace its rate.
package tax
