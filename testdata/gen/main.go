// gen writes the sample Parquet and Avro files under testdata/. Run it from
// the repository root.
package main

import (
	"log"
	"os"

	goavro "github.com/linkedin/goavro/v2"
	parquet "github.com/parquet-go/parquet-go"
)

type Person struct {
	Name   string   `parquet:"name"`
	Age    *int32   `parquet:"age,optional"`
	City   string   `parquet:"city"`
	Salary *float64 `parquet:"salary,optional"`
}

const avroSchema = `{
	"type": "record",
	"name": "person",
	"fields": [
		{"name": "name", "type": "string"},
		{"name": "age", "type": ["null", "int"]},
		{"name": "city", "type": "string"},
		{"name": "salary", "type": ["null", "double"]}
	]
}`

func i32(v int32) *int32     { return &v }
func f64(v float64) *float64 { return &v }

var people = []Person{
	{"Alice", i32(24), "NY", f64(1000000)},
	{"Bob", i32(20), "LA", f64(60000)},
	{"Charlie", nil, "NY", f64(75000)},
	{"Diana", i32(36), "SF", f64(56000)},
	{"Eve", nil, "LA", f64(88000)},
	{"Frank", i32(40), "NY", nil},
}

func main() {
	if err := writeParquet("testdata/people.parquet"); err != nil {
		log.Fatal(err)
	}
	if err := writeAvro("testdata/people.avro"); err != nil {
		log.Fatal(err)
	}
}

func writeParquet(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := parquet.NewGenericWriter[Person](f)
	if _, err := w.Write(people); err != nil {
		return err
	}
	return w.Close()
}

func writeAvro(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w, err := goavro.NewOCFWriter(goavro.OCFConfig{W: f, Schema: avroSchema})
	if err != nil {
		return err
	}

	records := make([]map[string]interface{}, len(people))
	for i, p := range people {
		rec := map[string]interface{}{"name": p.Name, "city": p.City, "age": nil, "salary": nil}
		if p.Age != nil {
			rec["age"] = goavro.Union("int", *p.Age)
		}
		if p.Salary != nil {
			rec["salary"] = goavro.Union("double", *p.Salary)
		}
		records[i] = rec
	}
	return w.Append(records)
}
