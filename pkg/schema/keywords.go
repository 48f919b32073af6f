package schema

// reservedKeywords is the SQL keyword blocklist property names may not
// collide with (case-insensitively), since property names become column-
// adjacent identifiers (`name` values in the side tables, and historically
// bare column names in the prototype graph-database adapter). The list
// follows SQLite's reserved-word table plus the common ANSI SQL core set.
var reservedKeywords = buildKeywordSet([]string{
	"abort", "action", "add", "after", "all", "alter", "always", "analyze",
	"and", "as", "asc", "attach", "autoincrement", "before", "begin",
	"between", "by", "cascade", "case", "cast", "check", "collate", "column",
	"commit", "conflict", "constraint", "create", "cross", "current",
	"current_date", "current_time", "current_timestamp", "database",
	"default", "deferrable", "deferred", "delete", "desc", "detach",
	"distinct", "do", "drop", "each", "else", "end", "escape", "except",
	"exclusive", "exists", "explain", "fail", "filter", "first", "following",
	"for", "foreign", "from", "full", "generated", "glob", "group", "groups",
	"having", "if", "ignore", "immediate", "in", "index", "indexed",
	"initially", "inner", "insert", "instead", "intersect", "into", "is",
	"isnull", "join", "key", "last", "left", "like", "limit", "match",
	"materialized", "natural", "no", "not", "nothing", "notnull", "null",
	"nulls", "of", "offset", "on", "or", "order", "others", "outer", "over",
	"partition", "plan", "pragma", "preceding", "primary", "query", "raise",
	"range", "recursive", "references", "regexp", "reindex", "release",
	"rename", "replace", "restrict", "returning", "right", "rollback", "row",
	"rows", "savepoint", "select", "set", "table", "temp", "temporary",
	"then", "ties", "to", "transaction", "trigger", "unbounded", "union",
	"unique", "update", "using", "vacuum", "values", "view", "virtual",
	"when", "where", "window", "with", "without",
	// ANSI/common additions; the few that repeat a word from the SQLite
	// list above collapse into one set entry.
	"absolute", "admin", "allocate", "alter", "array", "assertion", "at",
	"authorization", "bigint", "binary", "bit", "blob", "boolean", "both",
	"breadth", "call", "called", "cascaded", "catalog", "char", "character",
	"class", "clob", "close", "coalesce", "collation", "comment", "commit",
	"completion", "connect", "connection", "constraints", "continue",
	"corresponding", "count", "cube", "current_role", "current_user",
	"cursor", "cycle", "data", "date", "day", "deallocate", "dec", "decimal",
	"declare", "defer", "defined", "degree", "dense_rank", "depth", "deref",
	"describe", "descriptor", "destroy", "diagnostics", "disconnect",
	"domain", "double", "dynamic", "element", "equals", "every", "exec",
	"execute", "exit", "external", "extract", "false", "fetch", "float",
	"found", "free", "function", "general", "get", "global", "go", "goto",
	"grant", "grouping", "host", "hour", "identity", "immediate", "indicator",
	"initialize", "inout", "input", "insensitive", "int", "integer",
	"interval", "isolation", "iterate", "language", "large", "lateral",
	"leading", "less", "level", "local", "localtime", "localtimestamp",
	"locator", "map", "method", "minute", "modifies", "modify", "module",
	"month", "names", "national", "nchar", "nclob", "new", "next", "none",
	"numeric", "object", "old", "only", "open", "operation", "option",
	"ordinality", "out", "output", "overlaps", "pad", "parameter",
	"parameters", "partial", "pascal", "path", "postfix", "precision",
	"prefix", "preorder", "prepare", "preserve", "prior", "privileges",
	"procedure", "public", "read", "reads", "real", "ref", "relative",
	"result", "return", "role", "routine", "schema", "scroll", "search",
	"second", "section", "session", "session_user", "sets",
	"size", "smallint", "some", "space", "specific", "specifictype", "sql",
	"sqlexception", "sqlstate", "sqlwarning", "start", "state", "statement",
	"static", "structure", "system_user", "terminate", "than", "time",
	"timestamp", "timezone_hour", "timezone_minute", "trailing", "translate",
	"translation", "treat", "true", "under", "unknown", "unnest", "usage",
	"user", "using", "value", "varchar", "variable", "varying", "whenever",
	"work", "write", "year", "zone",
})

func buildKeywordSet(words []string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}
