// Package scrape fetches product pages and turns them into queryable documents.
//
// The central operation is Fetcher.RequestAndParse. It performs a single GET
// and dispatches on the response status:
//
//   - 200: the page is parsed.
//   - any other 2xx: logged as unexpected but not critical, then parsed.
//   - 4xx: logged as a warning and returned as a *StatusError wrapping
//     ErrClientStatus.
//   - anything else: logged as unclassified and returned as a *StatusError
//     wrapping ErrUnclassifiedStatus.
//
// There are no retries. Callers that want another attempt call again.
//
// # Usage
//
//	client, _ := httpclient.New(httpclient.WithTimeout(30 * time.Second))
//	fetcher := scrape.NewFetcher(client, scrape.WithLogger(logger))
//
//	page, err := fetcher.RequestAndParse(ctx, "https://shop.example/kettle",
//	    scrape.WithOutputFile("kettle"))
//	if err != nil {
//	    return err
//	}
//	text, err := scrape.ExtractPrice(page.Doc, ".price", "")
package scrape
