package reql

import "r-cli/internal/proto"

// termNames maps each TermType to the snake_case name used by the
// function-application fallback style ("r.<name>(...)") in the printer.
var termNames = map[proto.TermType]string{
	proto.TermDatum: "datum",
	proto.TermMakeArray: "make_array",
	proto.TermMakeObj: "make_obj",
	proto.TermVar: "var",
	proto.TermJavaScript: "js",
	proto.TermError: "error",
	proto.TermImplicitVar: "implicit_var",
	proto.TermDB: "db",
	proto.TermTable: "table",
	proto.TermGet: "get",
	proto.TermEq: "eq",
	proto.TermNe: "ne",
	proto.TermLt: "lt",
	proto.TermLe: "le",
	proto.TermGt: "gt",
	proto.TermGe: "ge",
	proto.TermNot: "not",
	proto.TermAdd: "add",
	proto.TermSub: "sub",
	proto.TermMul: "mul",
	proto.TermDiv: "div",
	proto.TermMod: "mod",
	proto.TermAppend: "append",
	proto.TermSlice: "slice",
	proto.TermGetField: "get_field",
	proto.TermHasFields: "has_fields",
	proto.TermPluck: "pluck",
	proto.TermWithout: "without",
	proto.TermMerge: "merge",
	proto.TermBetween: "between",
	proto.TermReduce: "reduce",
	proto.TermMap: "map",
	proto.TermFilter: "filter",
	proto.TermConcatMap: "concat_map",
	proto.TermOrderBy: "order_by",
	proto.TermDistinct: "distinct",
	proto.TermCount: "count",
	proto.TermUnion: "union",
	proto.TermNth: "nth",
	proto.TermInnerJoin: "inner_join",
	proto.TermOuterJoin: "outer_join",
	proto.TermEqJoin: "eq_join",
	proto.TermCoerceTo: "coerce_to",
	proto.TermTypeOf: "type_of",
	proto.TermUpdate: "update",
	proto.TermDelete: "delete",
	proto.TermReplace: "replace",
	proto.TermInsert: "insert",
	proto.TermDBCreate: "db_create",
	proto.TermDBDrop: "db_drop",
	proto.TermDBList: "db_list",
	proto.TermTableCreate: "table_create",
	proto.TermTableDrop: "table_drop",
	proto.TermTableList: "table_list",
	proto.TermFuncCall: "func_call",
	proto.TermBranch: "branch",
	proto.TermOr: "or",
	proto.TermAnd: "and",
	proto.TermForEach: "for_each",
	proto.TermFunc: "func",
	proto.TermSkip: "skip",
	proto.TermLimit: "limit",
	proto.TermZip: "zip",
	proto.TermAsc: "asc",
	proto.TermDesc: "desc",
	proto.TermIndexCreate: "index_create",
	proto.TermIndexDrop: "index_drop",
	proto.TermIndexList: "index_list",
	proto.TermGetAll: "get_all",
	proto.TermInfo: "info",
	proto.TermPrepend: "prepend",
	proto.TermSample: "sample",
	proto.TermInsertAt: "insert_at",
	proto.TermDeleteAt: "delete_at",
	proto.TermChangeAt: "change_at",
	proto.TermSpliceAt: "splice_at",
	proto.TermIsEmpty: "is_empty",
	proto.TermOffsetsOf: "offsets_of",
	proto.TermSetInsert: "set_insert",
	proto.TermSetIntersect: "set_intersect",
	proto.TermSetUnion: "set_union",
	proto.TermSetDifference: "set_difference",
	proto.TermDefault: "default",
	proto.TermContains: "contains",
	proto.TermKeys: "keys",
	proto.TermDifference: "difference",
	proto.TermWithFields: "with_fields",
	proto.TermMatch: "match",
	proto.TermJSON: "json",
	proto.TermISO8601: "iso8601",
	proto.TermToISO8601: "to_iso8601",
	proto.TermEpochTime: "epoch_time",
	proto.TermToEpochTime: "to_epoch_time",
	proto.TermNow: "now",
	proto.TermInTimezone: "in_timezone",
	proto.TermDuring: "during",
	proto.TermDate: "date",
	proto.TermMonday: "monday",
	proto.TermTuesday: "tuesday",
	proto.TermWednesday: "wednesday",
	proto.TermThursday: "thursday",
	proto.TermFriday: "friday",
	proto.TermSaturday: "saturday",
	proto.TermSunday: "sunday",
	proto.TermJanuary: "january",
	proto.TermFebruary: "february",
	proto.TermMarch: "march",
	proto.TermApril: "april",
	proto.TermMay: "may",
	proto.TermJune: "june",
	proto.TermJuly: "july",
	proto.TermAugust: "august",
	proto.TermSeptember: "september",
	proto.TermOctober: "october",
	proto.TermNovember: "november",
	proto.TermDecember: "december",
	proto.TermTimeOfDay: "time_of_day",
	proto.TermTimezone: "timezone",
	proto.TermYear: "year",
	proto.TermMonth: "month",
	proto.TermDay: "day",
	proto.TermDayOfWeek: "day_of_week",
	proto.TermDayOfYear: "day_of_year",
	proto.TermHours: "hours",
	proto.TermMinutes: "minutes",
	proto.TermSeconds: "seconds",
	proto.TermTime: "time",
	proto.TermLiteral: "literal",
	proto.TermSync: "sync",
	proto.TermIndexStatus: "index_status",
	proto.TermIndexWait: "index_wait",
	proto.TermUpcase: "upcase",
	proto.TermDowncase: "downcase",
	proto.TermObject: "object",
	proto.TermGroup: "group",
	proto.TermSum: "sum",
	proto.TermAvg: "avg",
	proto.TermMin: "min",
	proto.TermMax: "max",
	proto.TermSplit: "split",
	proto.TermUngroup: "ungroup",
	proto.TermRandom: "random",
	proto.TermChanges: "changes",
	proto.TermHTTP: "http",
	proto.TermArgs: "args",
	proto.TermBinary: "binary",
	proto.TermIndexRename: "index_rename",
	proto.TermGeoJSON: "geojson",
	proto.TermToGeoJSON: "to_geojson",
	proto.TermPoint: "point",
	proto.TermLine: "line",
	proto.TermPolygon: "polygon",
	proto.TermDistance: "distance",
	proto.TermIntersects: "intersects",
	proto.TermIncludes: "includes",
	proto.TermCircle: "circle",
	proto.TermGetIntersecting: "get_intersecting",
	proto.TermFill: "fill",
	proto.TermGetNearest: "get_nearest",
	proto.TermUUID: "uuid",
	proto.TermBracket: "bracket",
	proto.TermPolygonSub: "polygon_sub",
	proto.TermToJSONString: "to_j_s_o_n_string",
	proto.TermRange: "range",
	proto.TermConfig: "config",
	proto.TermStatus: "status",
	proto.TermReconfigure: "reconfigure",
	proto.TermWait: "wait",
	proto.TermRebalance: "rebalance",
	proto.TermMinVal: "min_val",
	proto.TermMaxVal: "max_val",
	proto.TermFloor: "floor",
	proto.TermCeil: "ceil",
	proto.TermRound: "round",
	proto.TermValues: "values",
	proto.TermFold: "fold",
	proto.TermGrant: "grant",
	proto.TermBitAnd: "bit_and",
	proto.TermBitOr: "bit_or",
	proto.TermBitXor: "bit_xor",
	proto.TermBitNot: "bit_not",
	proto.TermBitSal: "bit_sal",
	proto.TermBitSar: "bit_sar",
}
