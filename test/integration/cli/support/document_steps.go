package support

import (
	"encoding/json"
	"fmt"

	"github.com/cucumber/godog"

	"github.com/MeKo-Tech/docstruct/internal/geometry"
	"github.com/MeKo-Tech/docstruct/internal/testutil"
)

func (testCtx *TestContext) writeDocument(name string, doc testutil.Document) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", name, err)
	}
	_, err = testCtx.writeFile(name, data)
	return err
}

// aContractDocument writes the two-page contract fixture.
func (testCtx *TestContext) aContractDocument(name string) error {
	return testCtx.writeDocument(name, testutil.ContractDocument())
}

// anInvoiceDocument writes the one-page invoice fixture.
func (testCtx *TestContext) anInvoiceDocument(name string) error {
	return testCtx.writeDocument(name, testutil.InvoiceDocument())
}

func (testCtx *TestContext) aBrokenDocument(name string) error {
	_, err := testCtx.writeFile(name, []byte("{"))
	return err
}

func (testCtx *TestContext) aFileContaining(name string, doc *godog.DocString) error {
	_, err := testCtx.writeFile(name, []byte(doc.Content))
	return err
}

// aGradientImage writes a PNG whose pixel colors encode their coordinates.
func (testCtx *TestContext) aGradientImage(name string, width, height int) error {
	return geometry.SaveImage(testutil.CreateGradientImage(width, height), testCtx.Path(name))
}

// RegisterDocumentSteps registers the input fixture steps.
func (testCtx *TestContext) RegisterDocumentSteps(sc *godog.ScenarioContext) {
	sc.Step(`^a contract document "([^"]*)"$`, testCtx.aContractDocument)
	sc.Step(`^an invoice document "([^"]*)"$`, testCtx.anInvoiceDocument)
	sc.Step(`^a broken document "([^"]*)"$`, testCtx.aBrokenDocument)
	sc.Step(`^a file "([^"]*)" containing:$`, testCtx.aFileContaining)
	sc.Step(`^a gradient image "([^"]*)" of (\d+)x(\d+) pixels$`, testCtx.aGradientImage)
}
