// Package dataprocessing reads VSTOXX sub-index histories.
//
// A history is a table with one row per trading day. The date is either the
// column headed "Date" or, as in exported data frames, the unnamed first
// column. V6I2 and V2TX are required; V6I1 and V6I3 may be missing and are
// then absent on every row.
//
//	Date,V2TX,V6I1,V6I2,V6I3
//	2014-01-02,18.7,,18.5,19.0
//
// CSV and XLSX workbooks are supported. Empty cells and markers such as NaN
// or #N/A become absent readings. Excel serial dates are converted.
package dataprocessing
