// Package domain models Daymet gridded climate files and the tabular rows
// extracted from them.
//
// # Data Source
//
// Daymet v3 rasters are distributed by the ORNL DAAC THREDDS server as
// NetCDF-4 files, one variable per file:
//
//	Daily/<param>/daymet_v3_<param>_<year>_na.nc4             one band per day
//	Monthly/<param>/daymet_v3_<param>_mon<agg>_<year>_na.nc4  twelve bands
//	Annual/<param>/daymet_v3_<param>_ann<agg>_<year>_na.nc4   one band
//
// <agg> is "ttl" for precipitation and "avg" for every other variable.
// The directory names matter: the data type of a file is inferred from its
// directory path, never from its contents.
//
// # Ordering
//
// Files of one (data type, parameter) pair are emitted by ascending
// [SortKey]: the 4-digit year found in the file name, then the rank of the
// first taxonomy marker found in the directory path. For the default
// monthly taxonomy ["Monthly", "Annual"] this places each year's monthly
// rows before its annual row.
//
// # Encoding
//
// Precipitation (prcp) is scaled by 100 and rounded to one decimal place;
// every other parameter is rounded to two decimals. Halves round away from
// zero.
//
// Row labels:
//
//	daily:    "MM/DD/YYYY", "MM", "YYYY"  (band b is Jan 1 + b-1 days)
//	monthly:  "<param>_<year><MM>"        (MM is the zero-padded band)
//	annual:   "<param>_<year>14"          (14 is a sentinel month)
//
// Daily bands map one-to-one onto days starting Jan 1. A file with more
// bands than days, or 365 bands in a leap year, is reported as
// [ErrBandCount] rather than emitted with shifted dates.
package domain
