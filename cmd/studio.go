package cmd

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/ridoystarlord/seedato/engine"
	"github.com/ridoystarlord/seedato/loader"
	"github.com/ridoystarlord/seedato/plan"
	"github.com/ridoystarlord/seedato/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var studioSchemaFile string
var studioSeed int64

var studioCmd = &cobra.Command{
	Use:   "studio",
	Short: "Launch web-based seed data preview",
	Long: `Launch Seedato Studio - a web-based browser for the data a schema
document would generate, before anything touches your database.

This opens a web interface where you can:
- Browse every table the seed file would create
- Page and search through the generated rows
- Inspect the relationship diagram between tables

The interface will be available at http://localhost:8080 by default.`,
	Run: func(cmd *cobra.Command, args []string) {
		port := viper.GetString("studio.port")
		if port == "" {
			port = "8080"
		}

		doc, err := loader.LoadDocument(studioSchemaFile)
		if err != nil {
			fmt.Println("❌ Loading schema:", err)
			os.Exit(1)
		}
		reg, err := schema.BuildRegistry(doc)
		if err != nil {
			fmt.Println("❌ Resolving schema:", err)
			os.Exit(1)
		}
		g, err := engine.Build(reg, engine.Options{Seed: studioSeed})
		if err != nil {
			fmt.Println("❌ Populating data:", err)
			os.Exit(1)
		}
		ops, err := plan.FromGraph(g)
		if err != nil {
			fmt.Println("❌ Planning tables:", err)
			os.Exit(1)
		}

		fmt.Printf("🚀 Starting Seedato Studio on http://localhost:%s\n", port)
		fmt.Println("Press Ctrl+C to stop the server")

		if err := startStudioServer(port, ops); err != nil {
			log.Fatal(err)
		}
	},
}

func init() {
	rootCmd.AddCommand(studioCmd)

	// Add studio-specific flags
	studioCmd.Flags().String("port", "8080", "Port to run the web server on")
	studioCmd.Flags().StringVarP(&studioSchemaFile, "file", "f", "seedato.yaml", "Schema file to preview")
	studioCmd.Flags().Int64Var(&studioSeed, "seed", 0, "Random seed for the previewed generation run")
	viper.BindPFlag("studio.port", studioCmd.Flags().Lookup("port"))
}

func startStudioServer(port string, ops []plan.Operation) error {
	server := &StudioServer{ops: ops}

	// Setup routes
	http.HandleFunc("/", server.handleIndex)
	http.HandleFunc("/api/tables", server.handleTables)
	http.HandleFunc("/api/relationships", server.handleRelationships)
	http.HandleFunc("/api/table/", server.handleTableData)

	// Start server
	return http.ListenAndServe(":"+port, nil)
}

// StudioServer serves one generated operation plan.
type StudioServer struct {
	ops []plan.Operation
}

// TableInfo represents table metadata
type TableInfo struct {
	Name    string       `json:"name"`
	Rows    int          `json:"rows"`
	Columns []ColumnInfo `json:"columns"`
}

// ColumnInfo represents column metadata
type ColumnInfo struct {
	Name    string `json:"name"`
	Type    string `json:"type"`
	Primary bool   `json:"primary"`
	Unique  bool   `json:"unique"`
}

// TableData represents paginated table data
type TableData struct {
	Data  []map[string]interface{} `json:"data"`
	Total int                      `json:"total"`
	Page  int                      `json:"page"`
	Limit int                      `json:"limit"`
}

// Relationship represents a foreign key relationship between tables
type Relationship struct {
	SourceTable    string `json:"source_table"`
	SourceColumn   string `json:"source_column"`
	TargetTable    string `json:"target_table"`
	TargetColumn   string `json:"target_column"`
	ConstraintName string `json:"constraint_name"`
}

func (s *StudioServer) handleTables(w http.ResponseWriter, r *http.Request) {
	if r.Method != "GET" {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var tables []TableInfo
	for _, op := range s.ops {
		if op.Type != plan.CreateTable {
			continue
		}
		info := TableInfo{Name: op.TableName}
		for _, col := range op.Columns {
			info.Columns = append(info.Columns, ColumnInfo{
				Name:    col.Name,
				Type:    col.SQLType,
				Primary: col.Primary,
				Unique:  col.Unique,
			})
		}
		for _, ins := range s.ops {
			if ins.Type == plan.InsertRows && ins.TableName == op.TableName {
				info.Rows += len(ins.Rows)
			}
		}
		tables = append(tables, info)
	}

	response := map[string]interface{}{
		"tables": tables,
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

func (s *StudioServer) handleRelationships(w http.ResponseWriter, r *http.Request) {
	if r.Method != "GET" {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var relationships []Relationship
	for _, op := range s.ops {
		if op.Type != plan.AddForeignKey {
			continue
		}
		relationships = append(relationships, Relationship{
			SourceTable:    op.TableName,
			SourceColumn:   op.Column,
			TargetTable:    op.RefTable,
			TargetColumn:   op.RefColumn,
			ConstraintName: fmt.Sprintf("fk_%s_%s", op.TableName, op.Column),
		})
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(relationships)
}

func (s *StudioServer) handleTableData(w http.ResponseWriter, r *http.Request) {
	if r.Method != "GET" {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	// Extract table name from URL
	path := strings.TrimPrefix(r.URL.Path, "/api/table/")
	if path == "" {
		http.Error(w, "Table name required", http.StatusBadRequest)
		return
	}

	// Get query parameters
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit < 1 || limit > 1000 {
		limit = 50
	}

	search := strings.ToLower(r.URL.Query().Get("search"))

	var columns []plan.Column
	var rows [][]plan.Value
	found := false
	for _, op := range s.ops {
		if op.Type == plan.InsertRows && op.TableName == path {
			columns = op.Columns
			rows = append(rows, op.Rows...)
			found = true
		}
		if op.Type == plan.CreateTable && op.TableName == path {
			columns = op.Columns
			found = true
		}
	}
	if !found {
		http.Error(w, "Unknown table: "+path, http.StatusNotFound)
		return
	}

	var matched []map[string]interface{}
	for _, row := range rows {
		entry := map[string]interface{}{}
		hit := search == ""
		for i, col := range columns {
			if i >= len(row) {
				break
			}
			if row[i].Null {
				entry[col.Name] = nil
				continue
			}
			entry[col.Name] = row[i].Text
			if !hit && strings.Contains(strings.ToLower(row[i].Text), search) {
				hit = true
			}
		}
		if hit {
			matched = append(matched, entry)
		}
	}

	total := len(matched)
	start := (page - 1) * limit
	if start > total {
		start = total
	}
	end := start + limit
	if end > total {
		end = total
	}

	response := TableData{
		Data:  matched[start:end],
		Total: total,
		Page:  page,
		Limit: limit,
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

func (s *StudioServer) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	html := `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>Seedato Studio - Seed Data Preview</title>
    <script src="https://cdn.jsdelivr.net/npm/mermaid@10.6.1/dist/mermaid.min.js"></script>
    <style>
        * { box-sizing: border-box; margin: 0; padding: 0; }
        body { font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', sans-serif; background: #0f172a; color: #e2e8f0; display: flex; height: 100vh; }
        #sidebar { width: 260px; background: #1e293b; padding: 16px; overflow-y: auto; flex-shrink: 0; }
        #sidebar h1 { font-size: 18px; margin-bottom: 4px; color: #38bdf8; }
        #sidebar p { font-size: 12px; color: #94a3b8; margin-bottom: 16px; }
        .table-link { display: flex; justify-content: space-between; padding: 8px 10px; border-radius: 6px; cursor: pointer; font-size: 14px; }
        .table-link:hover { background: #334155; }
        .table-link.active { background: #0ea5e9; color: #0f172a; }
        .table-link .count { color: #64748b; font-size: 12px; }
        .table-link.active .count { color: #0f172a; }
        #diagram-btn { margin-top: 16px; width: 100%; padding: 8px; background: #334155; border: none; border-radius: 6px; color: #e2e8f0; cursor: pointer; }
        #diagram-btn:hover { background: #475569; }
        #main { flex: 1; padding: 24px; overflow: auto; }
        #toolbar { display: flex; gap: 8px; margin-bottom: 16px; align-items: center; }
        #toolbar h2 { flex: 1; font-size: 16px; }
        #search { background: #1e293b; border: 1px solid #334155; border-radius: 6px; padding: 6px 10px; color: #e2e8f0; }
        table { border-collapse: collapse; width: 100%; font-size: 13px; }
        th { text-align: left; padding: 8px 10px; background: #1e293b; color: #38bdf8; position: sticky; top: 0; }
        td { padding: 6px 10px; border-bottom: 1px solid #1e293b; white-space: nowrap; }
        td.null { color: #64748b; font-style: italic; }
        #pager { margin-top: 12px; display: flex; gap: 8px; align-items: center; font-size: 13px; }
        #pager button { background: #1e293b; border: 1px solid #334155; color: #e2e8f0; border-radius: 6px; padding: 4px 10px; cursor: pointer; }
        #pager button:disabled { opacity: 0.4; cursor: default; }
        #diagram { background: #f8fafc; border-radius: 8px; padding: 16px; }
    </style>
</head>
<body>
    <div id="sidebar">
        <h1>Seedato Studio</h1>
        <p>Preview of the generated seed data</p>
        <div id="tables"></div>
        <button id="diagram-btn" onclick="showDiagram()">Relationship diagram</button>
    </div>
    <div id="main">
        <div id="toolbar">
            <h2 id="title">Pick a table</h2>
            <input id="search" placeholder="Search rows..." oninput="searchChanged()" />
        </div>
        <div id="content"></div>
        <div id="pager"></div>
    </div>
    <script>
        mermaid.initialize({ startOnLoad: false });
        var tables = [];
        var current = null;
        var page = 1;
        var searchTimer = null;

        fetch('/api/tables').then(function(r) { return r.json(); }).then(function(data) {
            tables = data.tables || [];
            var box = document.getElementById('tables');
            tables.forEach(function(t) {
                var el = document.createElement('div');
                el.className = 'table-link';
                el.dataset.table = t.name;
                el.innerHTML = '<span>' + t.name + '</span><span class="count">' + t.rows + '</span>';
                el.onclick = function() { loadTable(t.name, 1); };
                box.appendChild(el);
            });
        });

        function loadTable(name, p) {
            current = name;
            page = p;
            document.querySelectorAll('.table-link').forEach(function(el) {
                el.classList.toggle('active', el.dataset.table === name);
            });
            var q = document.getElementById('search').value;
            fetch('/api/table/' + name + '?page=' + p + '&search=' + encodeURIComponent(q))
                .then(function(r) { return r.json(); })
                .then(renderRows);
        }

        function renderRows(data) {
            var meta = tables.find(function(t) { return t.name === current; });
            document.getElementById('title').textContent = current + ' (' + data.total + ' rows)';
            var cols = meta ? meta.columns.map(function(c) { return c.name; }) : [];
            var html = '<table><thead><tr>';
            cols.forEach(function(c) { html += '<th>' + c + '</th>'; });
            html += '</tr></thead><tbody>';
            (data.data || []).forEach(function(row) {
                html += '<tr>';
                cols.forEach(function(c) {
                    if (row[c] === null || row[c] === undefined) {
                        html += '<td class="null">null</td>';
                    } else {
                        html += '<td>' + escapeHTML(String(row[c])) + '</td>';
                    }
                });
                html += '</tr>';
            });
            html += '</tbody></table>';
            document.getElementById('content').innerHTML = html;

            var pages = Math.max(1, Math.ceil(data.total / data.limit));
            var pager = document.getElementById('pager');
            pager.innerHTML = '';
            var prev = document.createElement('button');
            prev.textContent = 'Prev';
            prev.disabled = page <= 1;
            prev.onclick = function() { loadTable(current, page - 1); };
            var label = document.createElement('span');
            label.textContent = 'Page ' + page + ' of ' + pages;
            var next = document.createElement('button');
            next.textContent = 'Next';
            next.disabled = page >= pages;
            next.onclick = function() { loadTable(current, page + 1); };
            pager.appendChild(prev);
            pager.appendChild(label);
            pager.appendChild(next);
        }

        function searchChanged() {
            if (!current) return;
            clearTimeout(searchTimer);
            searchTimer = setTimeout(function() { loadTable(current, 1); }, 250);
        }

        function showDiagram() {
            document.getElementById('title').textContent = 'Relationship diagram';
            document.getElementById('pager').innerHTML = '';
            fetch('/api/relationships').then(function(r) { return r.json(); }).then(function(rels) {
                var lines = ['erDiagram'];
                tables.forEach(function(t) {
                    lines.push('    ' + t.name + ' {');
                    t.columns.forEach(function(c) {
                        var marks = [];
                        if (c.primary) marks.push('PK');
                        if (c.unique) marks.push('UK');
                        lines.push('        ' + c.type.replace(/ /g, '_') + ' ' + c.name + (marks.length ? ' ' + marks.join(',') : ''));
                    });
                    lines.push('    }');
                });
                (rels || []).forEach(function(rel) {
                    lines.push('    ' + rel.target_table + ' ||--o{ ' + rel.source_table + ' : ' + rel.source_column);
                });
                var box = document.getElementById('content');
                box.innerHTML = '<div id="diagram"></div>';
                mermaid.render('erd', lines.join('\n')).then(function(out) {
                    document.getElementById('diagram').innerHTML = out.svg;
                });
            });
        }

        function escapeHTML(s) {
            return s.replace(/&/g, '&amp;').replace(/</g, '&lt;').replace(/>/g, '&gt;');
        }
    </script>
</body>
</html>`

	w.Header().Set("Content-Type", "text/html")
	w.Write([]byte(html))
}
