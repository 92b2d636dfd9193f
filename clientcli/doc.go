// Package clientcli provides a client library for the lockbox HTTP API.
//
// It supports upload, download, list, search and delete with bearer token
// authentication. Profiles in a YAML file hold connection settings for
// several servers.
//
// # Basic Usage
//
// Create a client and upload a file:
//
//	client, err := clientcli.New(&clientcli.Config{
//		Endpoint: "http://localhost:8080",
//		Token:    os.Getenv("LOCKBOX_TOKEN"),
//	})
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	results, err := client.Upload(ctx, clientcli.UploadOptions{
//		LocalPath: "./scan.pdf",
//	})
//
// Each result carries the server's file record. Its StorageKey is what
// Download takes and its ID is what Delete takes.
//
// # Profile Configuration
//
//	cfg, err := clientcli.LoadProfileConfig(clientcli.DefaultConfigPath(), "production")
//	if err != nil {
//		log.Fatal(err)
//	}
//	client, err := clientcli.New(cfg)
//
// # Output Formatting
//
//	formatter := clientcli.NewFormatter(jsonOutput, quiet)
//	formatter.FormatUpload(os.Stdout, results)
package clientcli
