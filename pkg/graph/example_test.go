package graph_test

import (
	"bytes"
	"fmt"
	"time"

	"github.com/matzehuels/genregraph/pkg/graph"
)

func ExampleWrite() {
	ds := &graph.Dataset{
		Nodes: []graph.Node{
			{ID: "0", Label: "Rock", Degree: 1},
			{ID: "1", Label: "Punk rock", Degree: 1},
		},
		Links: []graph.Link{
			{Source: "0", Target: "1", Type: graph.Subgenre},
		},
		MaxDegree: 1,
	}

	var buf bytes.Buffer
	if err := graph.Write(ds, &buf); err != nil {
		fmt.Println("Error:", err)
		return
	}
	fmt.Print(buf.String())
	// Output:
	// {
	//   "nodes": [
	//     {
	//       "id": "0",
	//       "label": "Rock",
	//       "degree": 1
	//     },
	//     {
	//       "id": "1",
	//       "label": "Punk rock",
	//       "degree": 1
	//     }
	//   ],
	//   "links": [
	//     {
	//       "source": "0",
	//       "target": "1",
	//       "ty": "Subgenre"
	//     }
	//   ],
	//   "max_degree": 1
	// }
}

func ExampleBuild() {
	genres := map[string]graph.ProcessedGenre{
		"Rock music": {
			Name:             "Rock",
			StylisticOrigins: []string{"Blues"},
			Subgenres:        []string{"Punk rock"},
		},
		"Blues":     {Name: "Blues"},
		"Punk rock": {Name: "Punk"},
	}

	ds, err := graph.Build(genres, graph.BuildOptions{
		DumpDate: time.Date(2025, 1, 23, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		fmt.Println("Error:", err)
		return
	}

	label := func(id string) string {
		n, _ := ds.NodeByID(id)
		return n.Label
	}
	for _, l := range ds.Links {
		fmt.Printf("%s -> %s (%s)\n", label(l.Source), label(l.Target), l.Type)
	}
	fmt.Println("dump date:", ds.DumpDate)
	fmt.Println("max degree:", ds.MaxDegree)
	// Output:
	// Blues -> Rock (Derivative)
	// Rock -> Punk (Subgenre)
	// dump date: 2025-01-23
	// max degree: 2
}

func ExampleParseDumpDate() {
	d, ok := graph.ParseDumpDate("enwiki-20250123-pages-articles-multistream.xml.bz2")
	fmt.Println(d.Format(time.DateOnly), ok)

	_, ok = graph.ParseDumpDate("dewiki-20250123-pages-articles")
	fmt.Println(ok)
	// Output:
	// 2025-01-23 true
	// false
}
